package hostapd

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultSSID = "Starbucks WiFi"

	// DefaultPassphraseLength matches what fits on a small screen.
	DefaultPassphraseLength = 10

	minPassphrase = 8
	maxPassphrase = 63
	maxSSID       = 32
)

const passphraseCharset = "abcdefghijklmnopqrstuvwxyz"

// Identity is the SSID and WPA2 passphrase currently announced.
type Identity struct {
	SSID       string
	Passphrase string
}

// Announcement renders the identity for the display sink.
func (id Identity) Announcement() string {
	return fmt.Sprintf("[+] %q (pw: %s)", id.SSID, id.Passphrase)
}

// Generator produces identities with a fixed SSID and a fresh passphrase.
// The passphrase is meant to be typed by a person in front of the screen,
// not to resist guessing.
type Generator struct {
	SSID   string
	Length int
	rng    *rand.Rand
}

// NewGenerator returns a generator. A nil src uses an unseeded PCG source
// drawn from the runtime's random state.
func NewGenerator(ssid string, length int, src rand.Source) (*Generator, error) {
	if err := ValidateSSID(ssid); err != nil {
		return nil, err
	}
	if length < minPassphrase || length > maxPassphrase {
		return nil, fmt.Errorf("passphrase length must be between %d and %d, got %d", minPassphrase, maxPassphrase, length)
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{SSID: ssid, Length: length, rng: rand.New(src)}, nil
}

// Next returns a new identity.
func (g *Generator) Next() Identity {
	pw := make([]byte, g.Length)
	for i := range pw {
		pw[i] = passphraseCharset[g.rng.IntN(len(passphraseCharset))]
	}
	return Identity{SSID: g.SSID, Passphrase: string(pw)}
}

// ValidateSSID checks the 802.11 length bound and rejects characters that
// would break the configuration file.
func ValidateSSID(ssid string) error {
	if ssid == "" {
		return errors.New("ssid must not be empty")
	}
	if len(ssid) > maxSSID {
		return fmt.Errorf("ssid must be at most %d bytes, got %d", maxSSID, len(ssid))
	}
	if !utf8.ValidString(ssid) {
		return errors.New("ssid must be valid utf-8")
	}
	for _, r := range ssid {
		if unicode.IsControl(r) {
			return fmt.Errorf("ssid contains control character %U", r)
		}
	}
	return nil
}

// ValidatePassphrase applies the WPA2-PSK rules: 8 to 63 printable ASCII
// characters.
func ValidatePassphrase(pw string) error {
	if n := len(pw); n < minPassphrase || n > maxPassphrase {
		return fmt.Errorf("passphrase must be %d to %d characters, got %d", minPassphrase, maxPassphrase, n)
	}
	for i := 0; i < len(pw); i++ {
		if pw[i] < 0x20 || pw[i] > 0x7e {
			return fmt.Errorf("passphrase contains non-printable byte 0x%02x", pw[i])
		}
	}
	return nil
}
