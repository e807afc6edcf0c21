package module

import dom "worlddex/internal/services/tier2/domain"

// Ports holds the ports exposed by the tier2 module
type Ports struct {
	Worker   dom.WorkerPort
	Enqueuer dom.EnqueuePort
	Jobs     dom.JobsPort
}
