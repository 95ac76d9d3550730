package ledger

import (
	"fmt"

	"github.com/finalbiome/finalbiome-impex/pkg/scale"
)

const (
	extrinsicVersion = 4
	signedBit        = 0b1000_0000

	multiAddressID        = 0x00
	multiSignatureEd25519 = 0x00
	immortalEra           = 0x00

	// Payloads longer than this are hashed before signing.
	maxRawPayload = 256
)

// txParams are the values covered by the signed extensions of a transaction.
type txParams struct {
	Nonce              uint32
	Tip                uint64
	SpecVersion        uint32
	TransactionVersion uint32
	GenesisHash        Hash
}

// signingPayload returns the bytes a signer signs for call under p.
func signingPayload(call []byte, p txParams) ([]byte, error) {
	e := scale.NewEncoder()
	e.WriteFixed(call)
	writeExtra(e, p)
	e.WriteU32(p.SpecVersion)
	e.WriteU32(p.TransactionVersion)
	e.WriteFixed(p.GenesisHash[:])
	// Immortal transactions are checked against the genesis block.
	e.WriteFixed(p.GenesisHash[:])
	payload, err := e.Bytes()
	if err != nil {
		return nil, err
	}
	if len(payload) > maxRawPayload {
		return Blake2_256(payload), nil
	}
	return payload, nil
}

func writeExtra(e *scale.Encoder, p txParams) {
	e.WriteU8(immortalEra)
	e.WriteCompact(uint64(p.Nonce))
	e.WriteCompact(p.Tip)
}

// buildSignedExtrinsic encodes a signed version 4 extrinsic, length prefix
// included, ready for author_submitExtrinsic.
func buildSignedExtrinsic(call []byte, signer Signer, p txParams) ([]byte, error) {
	payload, err := signingPayload(call, p)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign extrinsic: %w", err)
	}
	account := signer.AccountID()

	body := scale.NewEncoder()
	body.WriteU8(signedBit | extrinsicVersion)
	body.WriteU8(multiAddressID)
	body.WriteFixed(account[:])
	body.WriteU8(multiSignatureEd25519)
	body.WriteFixed(sig[:])
	writeExtra(body, p)
	body.WriteFixed(call)
	raw, err := body.Bytes()
	if err != nil {
		return nil, err
	}

	e := scale.NewEncoder()
	e.WriteBytes(raw)
	return e.Bytes()
}
