package keystore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"sui-wallet-go/pkg/address"
	"sui-wallet-go/pkg/hdkey"
	"sui-wallet-go/pkg/keypair"
	"sui-wallet-go/pkg/mnemonic"
	"sui-wallet-go/pkg/secret"
)

const (
	fileVersion = 1
	kdfName     = "argon2id"
	saltSize    = 16
)

var (
	ErrAuthFailed = errors.New("keystore authentication failed")
	ErrInvalid    = errors.New("keystore file is invalid")
)

// KDFParams are the argon2id cost parameters stored with each file
type KDFParams struct {
	Time     uint32 `json:"time"`
	MemoryKB uint32 `json:"memory_kb"`
	Threads  uint8  `json:"threads"`
}

var defaultKDF = KDFParams{Time: 2, MemoryKB: 64 * 1024, Threads: 1}

// upper bounds accepted when reading a file
var maxKDF = KDFParams{Time: 16, MemoryKB: 1024 * 1024, Threads: 16}

// File is the on-disk keystore. Address and DerivationPath are public;
// the mnemonic and BIP-39 passphrase live only in Ciphertext.
type File struct {
	Version        uint32    `json:"version"`
	Address        string    `json:"address"`
	DerivationPath string    `json:"derivation_path"`
	KDF            string    `json:"kdf"`
	KDFParams      KDFParams `json:"kdf_params"`
	Salt           []byte    `json:"salt"`
	Nonce          []byte    `json:"nonce"`
	Ciphertext     []byte    `json:"ciphertext"`
}

type payload struct {
	Mnemonic   string `json:"mnemonic"`
	Passphrase string `json:"passphrase,omitempty"`
}

// Encrypt validates phrase, derives its address and seals it under password
func Encrypt(password, phrase, passphrase, derivationPath string) (*File, error) {
	if password == "" {
		return nil, fmt.Errorf("keystore password is required")
	}
	if derivationPath == "" {
		derivationPath = hdkey.DefaultPath
	}

	kp, err := keypair.FromMnemonic(phrase, passphrase, derivationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key pair: %w", err)
	}
	addr := kp.Address()
	kp.Destroy()

	plain, err := json.Marshal(payload{Mnemonic: mnemonic.Normalize(phrase), Passphrase: passphrase})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keystore payload: %w", err)
	}
	defer secret.Wipe(plain)

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	f := &File{
		Version:        fileVersion,
		Address:        addr.String(),
		DerivationPath: derivationPath,
		KDF:            kdfName,
		KDFParams:      defaultKDF,
		Salt:           salt,
		Nonce:          nonce,
	}

	key := deriveKey(password, salt, f.KDFParams)
	defer key.Destroy()

	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	f.Ciphertext = aead.Seal(nil, nonce, plain, f.additionalData())
	return f, nil
}

// Decrypt opens f with password and rebuilds the key pair it protects
func Decrypt(password string, f *File) (*keypair.KeyPair, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	key := deriveKey(password, f.Salt, f.KDFParams)
	defer key.Destroy()

	aead, err := chacha20poly1305.NewX(key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	plain, err := aead.Open(nil, f.Nonce, f.Ciphertext, f.additionalData())
	if err != nil {
		return nil, ErrAuthFailed
	}
	defer secret.Wipe(plain)

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	kp, err := keypair.FromMnemonic(p.Mnemonic, p.Passphrase, f.DerivationPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if kp.Address().String() != f.Address {
		kp.Destroy()
		return nil, fmt.Errorf("%w: address mismatch", ErrInvalid)
	}
	return kp, nil
}

// Save encrypts phrase and writes it to path with 0600 permissions
func Save(path, password, phrase, passphrase, derivationPath string) (address.Address, error) {
	f, err := Encrypt(password, phrase, passphrase, derivationPath)
	if err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create keystore directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return "", fmt.Errorf("failed to write keystore: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write keystore: %w", err)
	}
	return address.Address(f.Address), nil
}

// Read parses a keystore file without decrypting it
func Read(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads path and decrypts it with password
func Load(path, password string) (*keypair.KeyPair, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	return Decrypt(password, f)
}

func (f *File) validate() error {
	if f == nil || f.Version != fileVersion || f.KDF != kdfName {
		return ErrInvalid
	}
	p := f.KDFParams
	if p.Time == 0 || p.Time > maxKDF.Time ||
		p.MemoryKB < 8*uint32(p.Threads) || p.MemoryKB > maxKDF.MemoryKB ||
		p.Threads == 0 || p.Threads > maxKDF.Threads {
		return fmt.Errorf("%w: kdf parameters out of range", ErrInvalid)
	}
	if len(f.Salt) != saltSize || len(f.Nonce) != chacha20poly1305.NonceSizeX ||
		len(f.Ciphertext) <= chacha20poly1305.Overhead {
		return ErrInvalid
	}
	if !address.IsValid(f.Address) {
		return fmt.Errorf("%w: bad address", ErrInvalid)
	}
	if _, err := hdkey.ParsePath(f.DerivationPath); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// additionalData binds the public header to the ciphertext
func (f *File) additionalData() []byte {
	return []byte(fmt.Sprintf("sui-keystore:v%d:%s:%s", f.Version, f.Address, f.DerivationPath))
}

func deriveKey(password string, salt []byte, p KDFParams) *secret.Secret {
	pw := []byte(password)
	defer secret.Wipe(pw)
	key := argon2.IDKey(pw, salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
	s := secret.From(key)
	secret.Wipe(key)
	return s
}
