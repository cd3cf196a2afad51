package constants

type TaskType string

// 任务来源
const (
	TaskTypeSYSTEM TaskType = "SYSTEM"
	TaskTypeYAML   TaskType = "YAML"
	TaskTypeAPI    TaskType = "API"
)
