package hostapd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Radio holds the settings of the access point that do not rotate.
type Radio struct {
	Interface   string
	CountryCode string
	HWMode      string
	Channel     int
}

// DefaultRadio returns the settings used when none are configured.
func DefaultRadio() Radio {
	return Radio{
		Interface:   "wlan1",
		CountryCode: "DE",
		HWMode:      "g",
		Channel:     11,
	}
}

var configTemplate = template.Must(template.New("hostapd.conf").Parse(`interface={{.Interface}}

logger_syslog=-1
logger_syslog_level=2
logger_stdout=-1
logger_stdout_level=2

ctrl_interface=/run/hostapd
ctrl_interface_group=0

ssid={{.SSID}}
country_code={{.CountryCode}}
hw_mode={{.HWMode}}
channel={{.Channel}}
beacon_int=100
dtim_period=2
max_num_sta=255
rts_threshold=-1
fragm_threshold=-1
macaddr_acl=0
auth_algs=3
ignore_broadcast_ssid=0

wmm_enabled=1
wmm_ac_bk_cwmin=4
wmm_ac_bk_cwmax=10
wmm_ac_bk_aifs=7
wmm_ac_bk_txop_limit=0
wmm_ac_bk_acm=0
wmm_ac_be_aifs=3
wmm_ac_be_cwmin=4
wmm_ac_be_cwmax=10
wmm_ac_be_txop_limit=0
wmm_ac_be_acm=0
wmm_ac_vi_aifs=2
wmm_ac_vi_cwmin=3
wmm_ac_vi_cwmax=4
wmm_ac_vi_txop_limit=94
wmm_ac_vi_acm=0
wmm_ac_vo_aifs=2
wmm_ac_vo_cwmin=2
wmm_ac_vo_cwmax=3
wmm_ac_vo_txop_limit=47
wmm_ac_vo_acm=0

eapol_key_index_workaround=0

eap_server=0

own_ip_addr=127.0.0.1

wpa=2
wpa_passphrase={{.Passphrase}}
wpa_key_mgmt=WPA-PSK
rsn_pairwise=CCMP
`))

// RenderConfig produces a hostapd configuration for the radio and identity.
func RenderConfig(radio Radio, id Identity) ([]byte, error) {
	if err := ValidateSSID(id.SSID); err != nil {
		return nil, err
	}
	if err := ValidatePassphrase(id.Passphrase); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err := configTemplate.Execute(&buf, struct {
		Radio
		Identity
	}{radio, id})
	if err != nil {
		return nil, fmt.Errorf("failed to render hostapd config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteConfig renders the configuration and replaces path with it. The file
// holds the passphrase, so it is only readable by its owner.
func WriteConfig(path string, radio Radio, id Identity) error {
	data, err := RenderConfig(radio, id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".hostapd-*.conf")
	if err != nil {
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write hostapd config: %w", err)
	}
	return nil
}
