// Package evm adapts the protocol core to EVM-family chains. Deterministic
// addresses come from CREATE2 against a fixed deployer and init code hash,
// so the same underlying token always maps to the same derivative and
// vault addresses.
package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/twosidefinance/twoside-core/internal/protocol"
)

// Deriver computes CREATE2 addresses for the protocol's derived accounts.
type Deriver struct {
	deployer     common.Address
	initCodeHash common.Hash
}

// NewDeriver builds a deriver for one deployment: the factory contract
// address and the keccak256 of the derived contract's init code.
func NewDeriver(deployer common.Address, initCodeHash common.Hash) *Deriver {
	return &Deriver{deployer: deployer, initCodeHash: initCodeHash}
}

// salt binds a derivation tag and an optional asset into one 32-byte salt.
func salt(tag protocol.Seed, asset *protocol.Address) common.Hash {
	data := []byte(tag)
	if asset != nil {
		data = append(data, asset[:]...)
	}
	return crypto.Keccak256Hash(data)
}

// create2 is keccak256(0xff ++ deployer ++ salt ++ initCodeHash)[12:].
func (d *Deriver) create2(s common.Hash) common.Address {
	return crypto.CreateAddress2(d.deployer, s, d.initCodeHash.Bytes())
}

// Derive implements protocol.Deriver for per-asset tags.
func (d *Deriver) Derive(tag protocol.Seed, asset protocol.Address) (protocol.Derived, error) {
	addr := d.create2(salt(tag, &asset))
	return protocol.Derived{Address: fromEthAddress(addr), Bump: 0}, nil
}

// DeriveStatic implements protocol.Deriver for singleton tags.
func (d *Deriver) DeriveStatic(tag protocol.Seed) (protocol.Derived, error) {
	addr := d.create2(salt(tag, nil))
	return protocol.Derived{Address: fromEthAddress(addr), Bump: 0}, nil
}

// AssociatedAccount implements protocol.Deriver. ERC20 balances are keyed
// by owner, so the holding account is the owner itself.
func (d *Deriver) AssociatedAccount(owner, _ protocol.Address) (protocol.Address, error) {
	return owner, nil
}

// toEthAddress truncates a protocol address to its low 20 bytes.
func toEthAddress(a protocol.Address) common.Address {
	return common.BytesToAddress(a[12:])
}

// fromEthAddress widens a 20-byte address, left-padding with zeros.
func fromEthAddress(a common.Address) protocol.Address {
	return protocol.AddressFromBytes(a.Bytes())
}
