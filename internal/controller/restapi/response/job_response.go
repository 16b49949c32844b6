package response

type Job struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type Error struct {
	Error string `json:"error"`
}
