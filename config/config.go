package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the briefing service
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Index      IndexConfig      `mapstructure:"index"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	DataDir        string `mapstructure:"data_dir"` // saved briefing JSON files
	DefaultDays    int    `mapstructure:"default_days"`
	DefaultCountry string `mapstructure:"default_country"`
	SynonymRange   int    `mapstructure:"synonym_range"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig configures the chat model used by the agents and synonym finder.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	ChatModel   string        `mapstructure:"chat_model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SourcesConfig contains crawl source configurations
type SourcesConfig struct {
	NewsAPI   NewsAPIConfig     `mapstructure:"newsapi"`
	Google    GoogleCSEConfig   `mapstructure:"google"`
	WebSearch WebSearchConfig   `mapstructure:"web_search"`
	Arxiv     ArxivConfig       `mapstructure:"arxiv"`
	Fetch     FetchConfig       `mapstructure:"fetch"`
	Policy    FetchPolicyConfig `mapstructure:"policy"`
}

// NewsAPIConfig contains NewsAPI settings
type NewsAPIConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Language string `mapstructure:"language"`
}

// GoogleCSEConfig contains Google Custom Search settings used for blog discovery
type GoogleCSEConfig struct {
	APIKey        string `mapstructure:"api_key"`
	CX            string `mapstructure:"cx"`
	Endpoint      string `mapstructure:"endpoint"`
	BlogsPerQuery int    `mapstructure:"blogs_per_query"`
}

// WebSearchConfig contains web search settings for the chat agent
type WebSearchConfig struct {
	Provider     string        `mapstructure:"provider"` // serper, brave, google
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ArxivConfig contains academic paper search settings
type ArxivConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	PapersPerKeyword int           `mapstructure:"papers_per_keyword"`
	PDFTimeout       time.Duration `mapstructure:"pdf_timeout"`
}

// FetchConfig controls full-text extraction of articles and blog posts
type FetchConfig struct {
	Fetcher   string        `mapstructure:"fetcher"` // http, chromedp
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxChars  int           `mapstructure:"max_chars"`
	Delay     time.Duration `mapstructure:"delay"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// SummarizerConfig selects the pretrained summarization models.
type SummarizerConfig struct {
	Provider           string             `mapstructure:"provider"` // huggingface, openai
	HuggingFace        HuggingFaceConfig  `mapstructure:"huggingface"`
	NewsModel          string             `mapstructure:"news_model"`
	BlogModel          string             `mapstructure:"blog_model"`
	PaperModel         string             `mapstructure:"paper_model"`
	TranslationModel   string             `mapstructure:"translation_model"`
	MaxInputTokens     int                `mapstructure:"max_input_tokens"`
	PaperMaxTokens     int                `mapstructure:"paper_max_input_tokens"`
	MaxDepth           int                `mapstructure:"max_depth"`
	RelevanceThreshold float64            `mapstructure:"relevance_threshold"`
	Generation         GenerationConfig   `mapstructure:"generation"`
	PaperGeneration    GenerationConfig   `mapstructure:"paper_generation"`
}

// HuggingFaceConfig contains Inference API access settings
type HuggingFaceConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// GenerationConfig mirrors the seq2seq generate() parameters sent to the model.
type GenerationConfig struct {
	MaxLength         int     `mapstructure:"max_length" json:"max_length,omitempty"`
	MinLength         int     `mapstructure:"min_length" json:"min_length,omitempty"`
	NumBeams          int     `mapstructure:"num_beams" json:"num_beams,omitempty"`
	NoRepeatNgramSize int     `mapstructure:"no_repeat_ngram_size" json:"no_repeat_ngram_size,omitempty"`
	RepetitionPenalty float64 `mapstructure:"repetition_penalty" json:"repetition_penalty,omitempty"`
	LengthPenalty     float64 `mapstructure:"length_penalty" json:"length_penalty,omitempty"`
	EarlyStopping     bool    `mapstructure:"early_stopping" json:"early_stopping"`
}

// EmbeddingConfig selects the sentence embedding model.
type EmbeddingConfig struct {
	Provider     string `mapstructure:"provider"` // openai, cohere, huggingface
	Model        string `mapstructure:"model"`
	CohereAPIKey string `mapstructure:"cohere_api_key"`
}

// IndexConfig controls the vector index built from saved briefings.
type IndexConfig struct {
	Path         string  `mapstructure:"path"`
	Backend      string  `mapstructure:"backend"` // file, postgres
	ChunkSize    int     `mapstructure:"chunk_size"`
	ChunkOverlap int     `mapstructure:"chunk_overlap"`
	TopK         int     `mapstructure:"top_k"`
	FetchK       int     `mapstructure:"fetch_k"`
	MMRLambda    float64 `mapstructure:"mmr_lambda"`
}

// AgentConfig controls the tool-selection agents
type AgentConfig struct {
	MaxIterations    int     `mapstructure:"max_iterations"`
	ChatTemperature  float64 `mapstructure:"chat_temperature"`
	AnswerLanguage   string  `mapstructure:"answer_language"`
	RefusalMessage   string  `mapstructure:"refusal_message"`
	WebSearchResults int     `mapstructure:"web_search_results"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	S3       S3Config       `mapstructure:"s3"`
}

// TelemetryConfig contains monitoring settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SchedulerConfig holds recurring briefing jobs.
type SchedulerConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Tick    time.Duration  `mapstructure:"tick"`
	Jobs    []ScheduledJob `mapstructure:"jobs"`
}

// ScheduledJob runs Prompt whenever Cron fires.
type ScheduledJob struct {
	Name         string `mapstructure:"name"`
	Cron         string `mapstructure:"cron"`
	Prompt       string `mapstructure:"prompt"`
	Country      string `mapstructure:"country"`
	SynonymRange int    `mapstructure:"synonym_range"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is set")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether Postgres was configured at all.
func (p PostgresConfig) Enabled() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

func (p PostgresConfig) Validate() error {
	if !p.Enabled() || strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a lib/pq connection string.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// S3Config contains object storage configuration.
type S3Config struct {
	Region       string `mapstructure:"region"`
	Profile      string `mapstructure:"profile"`
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// Enabled reports whether briefings should be mirrored to S3.
func (s S3Config) Enabled() bool { return strings.TrimSpace(s.Bucket) != "" }

// Normalize applies defaults for unset general values.
func (g GeneralConfig) Normalize() GeneralConfig {
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.DataDir == "" {
		g.DataDir = "database"
	}
	if g.DefaultDays <= 0 {
		g.DefaultDays = 1
	}
	if g.DefaultCountry == "" {
		g.DefaultCountry = "Korea"
	}
	if g.SynonymRange <= 0 {
		g.SynonymRange = 3
	}
	return g
}

func (g GeneralConfig) Validate() error {
	if g.SynonymRange < 1 || g.SynonymRange > 5 {
		return fmt.Errorf("general.synonym_range must be between 1 and 5")
	}
	return nil
}

func (l LLMConfig) Normalize() LLMConfig {
	if l.ChatModel == "" {
		l.ChatModel = "gpt-3.5-turbo"
	}
	if l.Timeout <= 0 {
		l.Timeout = 60 * time.Second
	}
	if l.APIKey == "" {
		l.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return l
}

func (s SourcesConfig) Normalize() SourcesConfig {
	if s.NewsAPI.Endpoint == "" {
		s.NewsAPI.Endpoint = "https://newsapi.org/v2/everything"
	}
	if s.NewsAPI.Language == "" {
		s.NewsAPI.Language = "ko"
	}
	if s.NewsAPI.APIKey == "" {
		s.NewsAPI.APIKey = os.Getenv("NEWS_API_KEY")
	}
	if s.Google.Endpoint == "" {
		s.Google.Endpoint = "https://www.googleapis.com/customsearch/v1"
	}
	if s.Google.APIKey == "" {
		s.Google.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if s.Google.CX == "" {
		s.Google.CX = os.Getenv("GOOGLE_CX")
	}
	if s.Google.BlogsPerQuery <= 0 {
		s.Google.BlogsPerQuery = 20
	}
	if s.WebSearch.Provider == "" {
		s.WebSearch.Provider = "serper"
	}
	if s.WebSearch.SerperAPIKey == "" {
		s.WebSearch.SerperAPIKey = os.Getenv("SERPER_API_KEY")
	}
	if s.WebSearch.BraveAPIKey == "" {
		s.WebSearch.BraveAPIKey = os.Getenv("BRAVE_SEARCH_KEY")
	}
	if s.WebSearch.MaxResults <= 0 {
		s.WebSearch.MaxResults = 3
	}
	if s.WebSearch.Timeout <= 0 {
		s.WebSearch.Timeout = 20 * time.Second
	}
	if s.Arxiv.Endpoint == "" {
		s.Arxiv.Endpoint = "http://export.arxiv.org/api/query"
	}
	if s.Arxiv.PapersPerKeyword <= 0 {
		s.Arxiv.PapersPerKeyword = 1
	}
	if s.Arxiv.PDFTimeout <= 0 {
		s.Arxiv.PDFTimeout = 15 * time.Second
	}
	if s.Fetch.Fetcher == "" {
		s.Fetch.Fetcher = "http"
	}
	if s.Fetch.UserAgent == "" {
		s.Fetch.UserAgent = "Mozilla/5.0 (compatible; Briefer/1.0)"
	}
	if s.Fetch.Timeout <= 0 {
		s.Fetch.Timeout = 15 * time.Second
	}
	if s.Fetch.MaxChars <= 0 {
		s.Fetch.MaxChars = 20000
	}
	// negative disables the politeness delay
	if s.Fetch.Delay == 0 {
		s.Fetch.Delay = time.Second
	} else if s.Fetch.Delay < 0 {
		s.Fetch.Delay = 0
	}
	if s.Fetch.CacheTTL <= 0 {
		s.Fetch.CacheTTL = 24 * time.Hour
	}
	s.Policy = s.Policy.Normalize()
	return s
}

func (s SummarizerConfig) Normalize() SummarizerConfig {
	if s.Provider == "" {
		s.Provider = "huggingface"
	}
	if s.HuggingFace.Endpoint == "" {
		s.HuggingFace.Endpoint = "https://router.huggingface.co/hf-inference/models"
	}
	if s.HuggingFace.APIKey == "" {
		s.HuggingFace.APIKey = os.Getenv("HF_API_KEY")
	}
	if s.HuggingFace.Timeout <= 0 {
		s.HuggingFace.Timeout = 120 * time.Second
	}
	if s.NewsModel == "" {
		s.NewsModel = "digit82/kobart-summarization"
	}
	if s.BlogModel == "" {
		s.BlogModel = s.NewsModel
	}
	if s.PaperModel == "" {
		s.PaperModel = "facebook/bart-large-cnn"
	}
	if s.MaxInputTokens <= 0 {
		s.MaxInputTokens = 1024
	}
	if s.PaperMaxTokens <= 0 {
		s.PaperMaxTokens = 1536
	}
	if s.MaxDepth <= 0 {
		s.MaxDepth = 2
	}
	if s.RelevanceThreshold == 0 {
		s.RelevanceThreshold = 0.1
	}
	if s.Generation == (GenerationConfig{}) {
		s.Generation = GenerationConfig{
			MaxLength:         700,
			MinLength:         100,
			NumBeams:          4,
			NoRepeatNgramSize: 3,
			RepetitionPenalty: 2.0,
			LengthPenalty:     1.0,
		}
	}
	if s.PaperGeneration == (GenerationConfig{}) {
		s.PaperGeneration = GenerationConfig{MaxLength: 512, NumBeams: 4, EarlyStopping: true}
	}
	return s
}

func (s SummarizerConfig) Validate() error {
	switch s.Provider {
	case "huggingface", "openai":
	default:
		return fmt.Errorf("summarizer.provider %q not supported", s.Provider)
	}
	if s.RelevanceThreshold < -1 || s.RelevanceThreshold > 1 {
		return fmt.Errorf("summarizer.relevance_threshold must be within [-1, 1]")
	}
	return nil
}

func (e EmbeddingConfig) Normalize() EmbeddingConfig {
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.CohereAPIKey == "" {
		e.CohereAPIKey = os.Getenv("COHERE_API_KEY")
	}
	if e.Model == "" {
		switch e.Provider {
		case "cohere":
			e.Model = "embed-multilingual-v3.0"
		case "huggingface":
			e.Model = "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2"
		default:
			e.Model = "text-embedding-3-small"
		}
	}
	return e
}

func (i IndexConfig) Normalize() IndexConfig {
	if i.Path == "" {
		i.Path = "faiss_index"
	}
	if i.Backend == "" {
		i.Backend = "file"
	}
	if i.ChunkSize <= 0 {
		i.ChunkSize = 500
	}
	if i.ChunkOverlap < 0 || i.ChunkOverlap >= i.ChunkSize {
		i.ChunkOverlap = 50
	}
	if i.TopK <= 0 {
		i.TopK = 3
	}
	if i.FetchK <= 0 {
		i.FetchK = 20
	}
	// 0 is a valid lambda (pure diversity); LoadConfig defaults an unset value to 0.5
	if i.MMRLambda < 0 || i.MMRLambda > 1 {
		i.MMRLambda = 0.5
	}
	return i
}

func (a AgentConfig) Normalize() AgentConfig {
	if a.MaxIterations <= 0 {
		a.MaxIterations = 5
	}
	if a.ChatTemperature == 0 {
		a.ChatTemperature = 0.3
	}
	if a.AnswerLanguage == "" {
		a.AnswerLanguage = "Korean"
	}
	if a.RefusalMessage == "" {
		a.RefusalMessage = "죄송합니다. 현재 뉴스, 블로그, 논문에 대한 요청만 처리할 수 있습니다."
	}
	if a.WebSearchResults <= 0 {
		a.WebSearchResults = 3
	}
	return a
}

func (s SchedulerConfig) Normalize() SchedulerConfig {
	if s.Tick <= 0 {
		s.Tick = time.Minute
	}
	return s
}

func (s SchedulerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}
	for i, j := range s.Jobs {
		if strings.TrimSpace(j.Cron) == "" {
			return fmt.Errorf("scheduler.jobs[%d].cron required", i)
		}
		if strings.TrimSpace(j.Prompt) == "" {
			return fmt.Errorf("scheduler.jobs[%d].prompt required", i)
		}
	}
	return nil
}

// Normalize fills every section's defaults.
func (c *Config) Normalize() {
	c.General = c.General.Normalize()
	if c.Server.Address == "" {
		c.Server.Address = ":7860"
	}
	c.LLM = c.LLM.Normalize()
	c.Sources = c.Sources.Normalize()
	c.Summarizer = c.Summarizer.Normalize()
	c.Embedding = c.Embedding.Normalize()
	c.Index = c.Index.Normalize()
	c.Agent = c.Agent.Normalize()
	c.Scheduler = c.Scheduler.Normalize()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.General.Validate(); err != nil {
		return err
	}
	if err := c.Sources.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Summarizer.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Postgres.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadConfig loads config from file. A missing config file is not fatal: every
// value has a default and API keys may come from the environment or .env.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetDefault("sources.fetch.delay", "1s")
	v.SetDefault("index.mmr_lambda", 0.5)

	v.SetEnvPrefix("BRIEFER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only answers for keys viper already knows about.
	bindEnvs(v, reflect.TypeOf(Config{}), "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvs registers every mapstructure key of t so BRIEFER_* variables are
// picked up by Unmarshal even when no config file was read.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, f.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}
