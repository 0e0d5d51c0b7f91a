package handlers

import (
	"github.com/jmoiron/sqlx"

	"vendora/internal/config"
	"vendora/internal/notify"
	"vendora/internal/repos"
	"vendora/internal/services"
)

type Deps struct {
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
	ReturnHandler   *ReturnHandler
	WalletHandler   *WalletHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, dispatcher notify.Dispatcher) *Deps {
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	walletRepo := repos.NewWalletRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	storeRepo := repos.NewStoreRepo(db)
	returnRepo := repos.NewReturnRepo(db)
	userRepo := repos.NewUserRepo(db)

	checkoutSvc := services.NewCheckoutService(db, prodRepo, orderRepo, walletRepo,
		couponRepo, addrRepo, userRepo, dispatcher, cfg.CheckoutTimeout)
	orderSvc := services.NewOrderService(db, orderRepo, storeRepo, prodRepo, walletRepo, userRepo, dispatcher)
	returnSvc := services.NewReturnService(db, returnRepo, orderRepo, storeRepo, walletRepo, userRepo, dispatcher)
	walletSvc := services.NewWalletService(walletRepo)

	return &Deps{
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc},
		OrderHandler:    &OrderHandler{Orders: orderSvc},
		ReturnHandler:   &ReturnHandler{Returns: returnSvc},
		WalletHandler:   &WalletHandler{Wallet: walletSvc},
	}
}
