package ioc

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one spyware family in the stalkerware-indicators ioc.yaml schema.
type Record struct {
	Name         string   `yaml:"name"`
	Names        []string `yaml:"names"`
	Packages     []string `yaml:"packages"`
	Certificates []string `yaml:"certificates"`
	Websites     []string `yaml:"websites"`
	Distribution []string `yaml:"distribution"`
	C2           struct {
		IPs     []string `yaml:"ips"`
		Domains []string `yaml:"domains"`
	} `yaml:"c2"`
}

type yamlDecoder struct{}

func (yamlDecoder) Decode(r io.Reader, emit func(Indicator)) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read ioc file: %w", err)
	}

	var records []Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("failed to parse ioc file: %w", err)
	}

	for _, rec := range records {
		for _, d := range rec.Websites {
			emit(Indicator{Family: rec.Name, Role: RoleWebsite, Value: d})
		}
		for _, d := range rec.Distribution {
			emit(Indicator{Family: rec.Name, Role: RoleDistribution, Value: d})
		}
		for _, d := range rec.C2.Domains {
			emit(Indicator{Family: rec.Name, Role: RoleC2, Value: d})
		}
		// TODO: match c2.ips against destination addresses once the frame model carries them
	}
	return len(records), nil
}

// listDecoder reads one domain per line. Blank lines and '#' comments are
// ignored; hosts-file lines ("0.0.0.0 example.com") contribute their names.
type listDecoder struct{}

func (listDecoder) Decode(r io.Reader, emit func(Indicator)) (int, error) {
	scanner := bufio.NewScanner(r)
	records := 0
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 1 && net.ParseIP(fields[0]) != nil {
			fields = fields[1:]
		}

		records++
		for _, d := range fields {
			emit(Indicator{Role: RoleListed, Value: d})
		}
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to read domain list: %w", err)
	}
	return records, nil
}
