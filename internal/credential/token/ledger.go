// Package token implements the non-transferable token ledger backing issued
// credentials. Tokens are minted exactly once to their owner; every later
// ownership change is rejected by the transfer hook (soulbound policy).
package token

import (
	"fmt"
	"sync"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
)

// Ledger tracks token ownership, balances, and metadata URIs.
type Ledger struct {
	mu       sync.RWMutex
	owners   map[uint64]domain.Address
	balances map[domain.Address]uint64
	uris     map[uint64]string
}

func NewLedger() *Ledger {
	return &Ledger{
		owners:   make(map[uint64]domain.Address),
		balances: make(map[domain.Address]uint64),
		uris:     make(map[uint64]string),
	}
}

// Mint assigns a fresh token to owner. Fails with sentinel.ErrConflict if the
// token ID is already taken.
func (l *Ledger) Mint(owner domain.Address, tokenID uint64, uri string) error {
	if owner.IsZero() {
		return fmt.Errorf("mint token %d: %w", tokenID, sentinel.ErrInvalidState)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.owners[tokenID]; ok {
		return fmt.Errorf("mint token %d: %w", tokenID, sentinel.ErrConflict)
	}
	l.owners[tokenID] = owner
	l.balances[owner]++
	l.uris[tokenID] = uri
	return nil
}

// Transfer is the hook invoked before any ownership change. After the initial
// mint no change of ownership is permitted, so it always fails once the token
// exists.
func (l *Ledger) Transfer(from, to domain.Address, tokenID uint64) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.owners[tokenID]; !ok {
		return fmt.Errorf("transfer token %d: %w", tokenID, sentinel.ErrNotFound)
	}
	return fmt.Errorf("transfer token %d: %w", tokenID, sentinel.ErrNonTransferable)
}

// OwnerOf returns the token's owner.
func (l *Ledger) OwnerOf(tokenID uint64) (domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owner, ok := l.owners[tokenID]
	if !ok {
		return domain.ZeroAddress, fmt.Errorf("token %d: %w", tokenID, sentinel.ErrNotFound)
	}
	return owner, nil
}

// BalanceOf returns how many tokens the owner holds.
func (l *Ledger) BalanceOf(owner domain.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[owner]
}

// TokenURI returns the token's metadata URI.
func (l *Ledger) TokenURI(tokenID uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	uri, ok := l.uris[tokenID]
	if !ok {
		return "", fmt.Errorf("token %d: %w", tokenID, sentinel.ErrNotFound)
	}
	return uri, nil
}
