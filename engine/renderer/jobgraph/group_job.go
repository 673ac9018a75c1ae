package jobgraph

/**
 * @brief Joins several jobs into one dependency. A job depending on the group
 * runs after every job added to it. Groups record nothing themselves.
 */
type GroupJob struct {
	GpuJob
}

func (g GroupJob) AddJob(other GpuJob) {
	g.DependsOn(other)
}

func (g GroupJob) AddJobs(jobs ...GpuJob) {
	for _, job := range jobs {
		g.DependsOn(job)
	}
}
