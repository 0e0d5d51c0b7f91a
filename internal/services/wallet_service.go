package services

import (
	"vendora/internal/domain"
	"vendora/internal/repos"
)

// WalletService is the read surface of the ledger; all writes go through the
// checkout, cancellation and return flows.
type WalletService struct {
	Wallet *repos.WalletRepo
}

func NewWalletService(wallet *repos.WalletRepo) *WalletService {
	return &WalletService{Wallet: wallet}
}

type WalletView struct {
	Balance      float64                    `json:"balance"`
	Transactions []domain.WalletTransaction `json:"transactions"`
}

func (s *WalletService) Statement(userID string) (WalletView, error) {
	bal, err := s.Wallet.Balance(userID)
	if err != nil {
		return WalletView{}, err
	}
	txns, err := s.Wallet.Statement(userID)
	if err != nil {
		return WalletView{}, err
	}
	return WalletView{Balance: bal, Transactions: txns}, nil
}
