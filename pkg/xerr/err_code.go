package xerr

const (
	SERVER_COMMON_ERROR = 100001
	REQUEST_PARAM_ERROR = 100002
	CONFIG_ERROR        = 100003
	DB_ERROR            = 100004

	// 抓取阶段
	ErrFetch       = 2000
	ErrFetchStatus = 2001
	ErrExtract     = 2002
	ErrInvalidURL  = 2003
	ErrFeedParse   = 2004

	// 模型阶段
	ErrModelCall   = 3000
	ErrModelEmpty  = 3001
	ErrInvalidJSON = 3002

	// 入库阶段
	ErrPersist       = 4000
	ErrPersistStatus = 4001
)
