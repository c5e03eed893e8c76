// Package coti provides a Go client for confidential smart contracts whose
// values are stored as ciphertexts and processed by an MPC backend.
//
// An [Account] wraps a signing key and holds the account's AES key. It
// builds input tokens that bind a ciphertext to the account, a contract,
// and a function, and it decrypts value handles read back from contracts.
// The AES key is issued by an on-chain onboarding exchange; when auto
// onboarding is enabled the first encrypt or decrypt call performs it.
//
// Basic usage:
//
//	client, err := chain.DialNetwork(ctx, chain.Testnet)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	signer, err := primitive.NewKeySigner(os.Getenv("PRIVATE_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	account, err := coti.New(signer, client, coti.WithOnboardContract(contract))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Onboards on first use, then encrypts 42 for setValue on target.
//	it, err := account.EncryptUint64(ctx, 42, target, confidential.SelectorOf("setValue((uint256,bytes))"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Persist the key material so the next run skips onboarding.
//	data, err := account.Export().MarshalBinary()
package coti
