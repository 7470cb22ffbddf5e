package constants

import "time"

const (
	OrderStatusPending  = "pending"
	OrderStatusApproved = "approved"
	OrderStatusRejected = "rejected"
	OrderStatusFinished = "finished"
)

const (
	TitleNewCoinRequest      = "New Coin Request"
	TitleCoinRequestApproved = "Coin Request Approved"
	TitleCoinRequestRejected = "Coin Request Rejected"
	TitleNewOrder            = "New Order"
	TitleOrderApproved       = "Order Approved"
	TitleOrderRejected       = "Order Rejected"
	TitleOrderFinished       = "Order Finished"
)

const (
	DefaultRunAddr        = ":8080"
	DefaultJWTSecret      = "supersecretkey"
	DefaultTokenTTL       = 7 * 24 * time.Hour
	DefaultUploadDir      = "./uploads"
	DefaultMigrationsPath = "migrations"
	DefaultMaxUploadBytes = 10 << 20
	DefaultAdminLogin     = "admin"
	DefaultRateLimitRPS   = 5
	DefaultRateLimitBurst = 10
	DefaultSweepInterval  = 30 * time.Minute
	OrphanGracePeriod     = time.Hour
	MinPasswordLength     = 6
	UploadsURLPrefix      = "/uploads/"
	ProofFilePrefix       = "proof_"
	ProductFilePrefix     = "product_"
)
