// Package config loads the newsvoice configuration: built-in defaults, then
// an optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clobrano/newsvoice/internal/chunker"
	"github.com/clobrano/newsvoice/internal/fetch"
	"github.com/clobrano/newsvoice/internal/schedule"
	"github.com/clobrano/newsvoice/internal/scrape"
	"github.com/clobrano/newsvoice/internal/tts"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "newsvoice.yaml"

var (
	ErrMissingSourceURL    = errors.New("site.url or site.feed_url is required")
	ErrMissingSelectors    = errors.New("site.selectors.content is empty and readability fallback is off")
	ErrMissingOutputDir    = errors.New("output.dir is required")
	ErrInvalidScheduleTime = errors.New("schedule.time must be HH:MM")
)

type Config struct {
	Site     scrape.Site    `yaml:"site"`
	TTS      TTSConfig      `yaml:"tts"`
	Output   OutputConfig   `yaml:"output"`
	Request  RequestConfig  `yaml:"request"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
	Inbox    InboxConfig    `yaml:"inbox"`
	Notify   NotifyConfig   `yaml:"notify"`

	// Credentials only ever come from the environment or a prompt.
	Credentials tts.Credentials `yaml:"-"`
}

type TTSConfig struct {
	Provider       string        `yaml:"provider"`
	Voice          tts.Voice     `yaml:"voice"`
	Interval       time.Duration `yaml:"interval"`
	MaxChunkLength int           `yaml:"max_chunk_length"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir"`
	MaxArticles  int    `yaml:"max_articles"`
	Playlist     bool   `yaml:"playlist"`
	PlaylistName string `yaml:"playlist_name"`
	ExportText   bool   `yaml:"export_text"`
}

type RequestConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	// Delay is the politeness pause before each article fetch.
	Delay     time.Duration `yaml:"delay"`
	UserAgent string        `yaml:"user_agent"`
}

type ScheduleConfig struct {
	Enabled bool          `yaml:"enabled"`
	Time    string        `yaml:"time"`
	Poll    time.Duration `yaml:"poll"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type InboxConfig struct {
	Dir      string        `yaml:"dir"`
	Retries  int           `yaml:"retries"`
	Debounce time.Duration `yaml:"debounce"`
}

type NotifyConfig struct {
	NtfyTopic  string `yaml:"ntfy_topic"`
	NtfyServer string `yaml:"ntfy_server"`
}

// Default returns the built-in profile: the Daily Sabah columns page read
// with OpenAI voices.
func Default() *Config {
	return &Config{
		Site: scrape.Site{
			Name:        "Daily Sabah",
			URL:         "https://www.dailysabah.com/columns",
			LinkPattern: `/columns/.+`,
			MinLinkText: scrape.DefaultMinLinkText,
			Selectors: scrape.Selectors{
				ArticleCard: "div.article-card",
				Title:       "h3",
				Author:      "div.author-info",
				Link:        "a.card",
				Content: []string{
					"div.article-content",
					"div.content",
					"div.post-content",
					"article",
					"div.entry-content",
				},
			},
		},
		TTS: TTSConfig{
			Provider:       "openai",
			Interval:       tts.DefaultInterval,
			MaxChunkLength: chunker.DefaultMaxLength,
		},
		Output: OutputConfig{
			Dir:          "audio_files",
			MaxArticles:  5,
			Playlist:     true,
			PlaylistName: "news_playlist.m3u",
		},
		Request: RequestConfig{
			Timeout:    fetch.DefaultTimeout,
			Retries:    fetch.DefaultRetries,
			RetryDelay: fetch.DefaultRetryDelay,
			Delay:      scrape.DefaultDelay,
			UserAgent:  fetch.DefaultUserAgent,
		},
		Schedule: ScheduleConfig{
			Enabled: true,
			Time:    "09:00",
			Poll:    schedule.DefaultPoll,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "news_tts.log",
		},
		Inbox: InboxConfig{
			Dir:      "inbox",
			Retries:  3,
			Debounce: 500 * time.Millisecond,
		},
		Notify: NotifyConfig{
			NtfyServer: "https://ntfy.sh",
		},
	}
}

// Load builds the configuration. A missing file at path is an error only
// when mustExist is set.
func Load(path string, mustExist bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !mustExist:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Output.Dir = getEnv("NEWSVOICE_OUTPUT_DIR", c.Output.Dir)
	c.TTS.Provider = strings.ToLower(getEnv("NEWSVOICE_TTS_PROVIDER", c.TTS.Provider))
	c.TTS.Voice.ID = getEnv("NEWSVOICE_TTS_VOICE", c.TTS.Voice.ID)
	c.Logging.Level = getEnv("NEWSVOICE_LOG_LEVEL", c.Logging.Level)
	c.Notify.NtfyTopic = getEnv("NEWSVOICE_NTFY_TOPIC", c.Notify.NtfyTopic)
	c.Inbox.Dir = getEnv("NEWSVOICE_INBOX_DIR", c.Inbox.Dir)
	if n, err := strconv.Atoi(os.Getenv("NEWSVOICE_MAX_ARTICLES")); err == nil {
		c.Output.MaxArticles = n
	}

	c.Credentials = tts.Credentials{
		OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
		ElevenLabsKey:         getEnv("ELEVENLABS_API_KEY", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleAPIKey:          getEnv("GOOGLE_TTS_API_KEY", ""),
		GeminiKey:             getEnv("GOOGLE_API_KEY", ""),
		AzureKey:              getEnv("AZURE_SPEECH_KEY", ""),
		AzureRegion:           getEnv("AZURE_SPEECH_REGION", ""),
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Site.URL == "" && c.Site.FeedURL == "" {
		return ErrMissingSourceURL
	}
	if len(c.Site.Selectors.Content) == 0 && !c.Site.ReadabilityFallback {
		return ErrMissingSelectors
	}
	if _, err := c.Site.CompileLinkPattern(); err != nil {
		return err
	}
	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}
	if _, err := tts.DefaultVoice(c.TTS.Provider); err != nil {
		return err
	}
	if format := c.Voice().Format; !tts.SupportsFormat(c.TTS.Provider, format) {
		return fmt.Errorf("%w: %s cannot write %q", tts.ErrUnsupportedFormat, c.TTS.Provider, format)
	}
	if c.Schedule.Enabled {
		if _, _, err := schedule.ParseClock(c.Schedule.Time); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScheduleTime, err)
		}
	}
	return nil
}

// Voice is the configured voice with provider defaults filled in.
func (c *Config) Voice() tts.Voice {
	def, _ := tts.DefaultVoice(c.TTS.Provider)
	return c.TTS.Voice.Or(def)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
