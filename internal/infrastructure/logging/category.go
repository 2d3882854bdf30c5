package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Redis           Category = "Redis"
	MongoDB         Category = "MongoDB"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
	Room            Category = "Room"
	Token           Category = "Token"
	Realtime        Category = "Realtime"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Room
	Admission SubCategory = "Admission"
	Lifecycle SubCategory = "Lifecycle"
	Relay     SubCategory = "Relay"

	// Token
	Issue  SubCategory = "Issue"
	Verify SubCategory = "Verify"

	// Realtime
	Subscribe SubCategory = "Subscribe"
	Publish   SubCategory = "Publish"

	// MongoDB
	Insert SubCategory = "Insert"
	Select SubCategory = "Select"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	HostIp       ExtraKey = "HostIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RequestBody  ExtraKey = "RequestBody"
	ResponseBody ExtraKey = "ResponseBody"
	ErrorMessage ExtraKey = "ErrorMessage"
	RequestID    ExtraKey = "RequestId"
	RoomID       ExtraKey = "RoomId"
	UserID       ExtraKey = "UserId"
	Attempt      ExtraKey = "Attempt"
	Result       ExtraKey = "Result"
	EventName    ExtraKey = "Event"
)
