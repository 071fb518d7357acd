package metrics

const Namespace = "cryptoforge"

const (
	StoreTypeRedis  = "redis"
	StoreTypeMemory = "memory"
)

const (
	StoreOperationGet    = "get"
	StoreOperationPut    = "put"
	StoreOperationList   = "list"
	StoreOperationDelete = "delete"
	StoreOperationIncr   = "incr"
	StoreOperationSweep  = "sweep"
)

const (
	SecretResultSuccess = "success"
	SecretResultError   = "error"
)

const (
	EnrollmentOpSubmit = "submit"
	EnrollmentOpPoll   = "poll"
	EnrollmentOpChain  = "chain"
	EnrollmentOpCACert = "ca_cert"
	EnrollmentOpCheck  = "check_credentials"
)
