package db

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"tarefo-server/src/models"
)

// BankCache caches bank reference rows. Banks are static data (name, code,
// API base URL) and are read on every sync, so they are worth keeping hot.
// Mutations through the admin routes must call Invalidate.
type BankCache struct {
	cache *ristretto.Cache
}

func NewBankCache() (*BankCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000, // number of keys to track frequency of
		MaxCost:     1000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("init bank cache: %w", err)
	}
	return &BankCache{cache: cache}, nil
}

func (c *BankCache) Get(bankID int64) (*models.Bank, bool) {
	value, found := c.cache.Get(bankKey(bankID))
	if !found {
		return nil, false
	}
	bank, ok := value.(*models.Bank)
	return bank, ok
}

func (c *BankCache) Set(bank *models.Bank) {
	c.cache.Set(bankKey(bank.ID), bank, 1)
}

func (c *BankCache) Invalidate(bankID int64) {
	c.cache.Del(bankKey(bankID))
}

func bankKey(id int64) string {
	return fmt.Sprintf("bank:%d", id)
}
