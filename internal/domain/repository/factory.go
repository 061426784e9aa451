package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	Reviews() ReviewRepository
	Merchants() MerchantRepository
	Users() UserRepository
	Configs() ConfigRepository
}
