package sim

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config defines the simulated module.
type Config struct {
	// Folders lists the number of files in each folder.
	Folders []int
	// TrackDuration is how long every track plays.
	TrackDuration time.Duration
	// NoChecksum sends and expects frames without checksum.
	NoChecksum bool
}

// Defaults
const (
	DefaultTrackDuration = 30 * time.Second
)

var defaultConfig = Config{
	Folders:       []int{10, 10, 10},
	TrackDuration: DefaultTrackDuration,
}

// folderList is a flag.Value of comma separated file counts.
type folderList struct {
	folders *[]int
}

func (l folderList) String() string {
	if l.folders == nil {
		return ""
	}
	items := make([]string, len(*l.folders))
	for n, count := range *l.folders {
		items[n] = strconv.Itoa(count)
	}
	return strings.Join(items, ",")
}

func (l folderList) Set(s string) error {
	folders, err := ParseFolders(s)
	if err != nil {
		return err
	}
	*l.folders = folders
	return nil
}

// ParseFolders parses comma separated file counts, e.g. "5,12,3".
func ParseFolders(s string) ([]int, error) {
	var folders []int
	for _, item := range strings.Split(s, ",") {
		count, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil || count < 0 || count > 255 {
			return nil, fmt.Errorf("invalid file count %q", item)
		}
		folders = append(folders, count)
	}
	if len(folders) > 99 {
		return nil, fmt.Errorf("too many folders: %d", len(folders))
	}
	return folders, nil
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(folderList{&defaultConfig.Folders}, "sim-folders", "Files per folder on the simulated TF card, e.g. 5,12,3.")
	flag.DurationVar(&defaultConfig.TrackDuration, "sim-track", defaultConfig.TrackDuration, "Duration of each simulated track.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Folders = append([]int(nil), defaultConfig.Folders...)
	return &conf
}

// NewModule creates a Module.
func (c *Config) NewModule() *Module {
	m := New(c.Folders...)
	if c.TrackDuration > 0 {
		m.TrackDuration = c.TrackDuration
	}
	m.NoChecksum = c.NoChecksum
	return m
}
