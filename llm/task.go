package llm

// Task markers. Each workshop prompt opens with a "Task: <marker>" line; the
// mock adapter keys its templated answers off the marker.
const (
	TaskExtraction = "project-context-extraction"
	TaskClusters   = "cluster-synthesis"
	TaskDiscovery  = "discovery-synthesis"
	TaskExercises  = "exercise-synthesis"
	TaskBrief      = "brief-synthesis"
)
