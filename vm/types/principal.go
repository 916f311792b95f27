package types

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/encryption"
)

// principal encoding constants
const (
	PrincipalHashLength = 20
	ContractNameMaxLen  = 40
	NameMaxLen          = 128

	principalPrefix = "S"
	checksumLength  = 4
)

var (
	contractNameRegex = regexp.MustCompile(`^[a-zA-Z]([a-zA-Z0-9]|[-_])*$`)
	nameRegex         = regexp.MustCompile(`^([a-zA-Z]([a-zA-Z0-9]|[-_!?+<>=/*])*|[-+=/*]|[<>]=?)$`)
)

/*Principal - an account or a contract that can own assets */
type Principal interface {
	Value
	isPrincipal()
}

/*StandardPrincipal - an account: address version and hash */
type StandardPrincipal struct {
	Version byte
	Hash    [PrincipalHashLength]byte
}

// NewStandardPrincipal hashes seed into an address, mostly for tests and
// genesis files.
func NewStandardPrincipal(version byte, seed string) StandardPrincipal {
	p := StandardPrincipal{Version: version}
	copy(p.Hash[:], encryption.RawHash(seed))
	return p
}

func (p StandardPrincipal) isPrincipal() {}

/*Type - implement interface */
func (p StandardPrincipal) Type() ValueType { return TypeStandardPrincipal }

/*TypeName - implement interface */
func (p StandardPrincipal) TypeName() string { return "principal" }

// Address returns the base58check form.
func (p StandardPrincipal) Address() string {
	payload := make([]byte, 0, 1+PrincipalHashLength+checksumLength)
	payload = append(payload, p.Version)
	payload = append(payload, p.Hash[:]...)
	payload = append(payload, encryption.Checksum(payload, checksumLength)...)
	return principalPrefix + base58.Encode(payload)
}

func (p StandardPrincipal) String() string { return p.Address() }

func (p StandardPrincipal) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(TypeStandardPrincipal))
	p.write(w)
	return nil
}

func (p StandardPrincipal) write(w *bytes.Buffer) {
	w.WriteByte(p.Version)
	w.Write(p.Hash[:])
}

// ParseStandardPrincipal parses an address produced by Address.
func ParseStandardPrincipal(s string) (StandardPrincipal, error) {
	if !strings.HasPrefix(s, principalPrefix) {
		return StandardPrincipal{}, common.Wrap(ErrInvalidPrincipal, "missing prefix: %q", s)
	}
	payload, err := base58.Decode(s[len(principalPrefix):])
	if err != nil {
		return StandardPrincipal{}, common.Wrap(ErrInvalidPrincipal, "%q: %v", s, err)
	}
	if len(payload) != 1+PrincipalHashLength+checksumLength {
		return StandardPrincipal{}, common.Wrap(ErrInvalidPrincipal, "bad length: %q", s)
	}
	body := payload[:1+PrincipalHashLength]
	if !bytes.Equal(encryption.Checksum(body, checksumLength), payload[len(body):]) {
		return StandardPrincipal{}, common.Wrap(ErrInvalidPrincipal, "bad checksum: %q", s)
	}
	p := StandardPrincipal{Version: body[0]}
	copy(p.Hash[:], body[1:])
	return p, nil
}

/*ContractIdentifier - a contract: the issuing account and the contract name */
type ContractIdentifier struct {
	Issuer StandardPrincipal
	Name   string
}

// NewContractIdentifier validates name.
func NewContractIdentifier(issuer StandardPrincipal, name string) (ContractIdentifier, error) {
	if err := ValidateContractName(name); err != nil {
		return ContractIdentifier{}, err
	}
	return ContractIdentifier{Issuer: issuer, Name: name}, nil
}

// ParseContractIdentifier parses issuer.name.
func ParseContractIdentifier(s string) (ContractIdentifier, error) {
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return ContractIdentifier{}, common.Wrap(ErrInvalidIdentifier, "missing contract name: %q", s)
	}
	issuer, err := ParseStandardPrincipal(s[:idx])
	if err != nil {
		return ContractIdentifier{}, err
	}
	return NewContractIdentifier(issuer, s[idx+1:])
}

// ParsePrincipal parses either kind of principal.
func ParsePrincipal(s string) (Principal, error) {
	if strings.IndexByte(s, '.') >= 0 {
		return ParseContractIdentifier(s)
	}
	return ParseStandardPrincipal(s)
}

func (c ContractIdentifier) isPrincipal() {}

/*Type - implement interface */
func (c ContractIdentifier) Type() ValueType { return TypeContractPrincipal }

/*TypeName - implement interface */
func (c ContractIdentifier) TypeName() string { return "principal" }

func (c ContractIdentifier) String() string {
	return c.Issuer.Address() + "." + c.Name
}

func (c ContractIdentifier) serialize(w *bytes.Buffer, _ int) error {
	w.WriteByte(byte(TypeContractPrincipal))
	c.Issuer.write(w)
	w.WriteByte(byte(len(c.Name)))
	w.WriteString(c.Name)
	return nil
}

// ValidateContractName checks a contract name.
func ValidateContractName(name string) error {
	if len(name) == 0 || len(name) > ContractNameMaxLen || !contractNameRegex.MatchString(name) {
		return common.Wrap(ErrInvalidIdentifier, "contract name %q", name)
	}
	return nil
}

// ValidateName checks a variable, map, token, function or tuple field name.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > NameMaxLen || !nameRegex.MatchString(name) {
		return common.Wrap(ErrInvalidIdentifier, "name %q", name)
	}
	return nil
}

/*AssetIdentifier - a token defined by a contract */
type AssetIdentifier struct {
	Contract ContractIdentifier
	Name     string
}

// STXAssetIdentifier names the native token in ledgers and events.
var STXAssetIdentifier = AssetIdentifier{Name: "STX"}

// IsSTX reports whether a names the native token.
func (a AssetIdentifier) IsSTX() bool { return a == STXAssetIdentifier }

func (a AssetIdentifier) String() string {
	if a.IsSTX() {
		return a.Name
	}
	return a.Contract.String() + "::" + a.Name
}
