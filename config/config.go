// Package config 加载 config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"wildtrack/ml"
)

// Config 应用配置
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Model struct {
		Type   string `yaml:"type"`
		Path   string `yaml:"path"`
		Schema string `yaml:"schema"`
	} `yaml:"model"`
	Data struct {
		Dir      string `yaml:"dir"`
		Animals  string `yaml:"animals"`
		Climate  string `yaml:"climate"`
		Combined string `yaml:"combined"`
		Encoding string `yaml:"encoding"`
	} `yaml:"data"`
	Cache struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
	Reload struct {
		Watch    bool          `yaml:"watch"`
		Debounce time.Duration `yaml:"debounce"`
	} `yaml:"reload"`
}

// Default 默认配置
func Default() *Config {
	var c Config
	c.Http.Port = 8501
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 5
	c.Log.MaxAgeDays = 30
	c.Model.Type = ml.TypeLogisticRegression
	c.Model.Path = "Model/predicting_model.json"
	c.Model.Schema = string(ml.SchemaExtended)
	c.Data.Dir = "Data/Cleaned_Data"
	c.Data.Animals = "cleaned_animal_data.csv"
	c.Data.Climate = "cleaned_climate_data.csv"
	c.Data.Combined = "final_combined_data.csv"
	c.Data.Encoding = "utf-8"
	c.Cache.Size = 64
	c.Reload.Debounce = 500 * time.Millisecond
	return &c
}

// Load 读取配置文件，未设置的字段保留默认值
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Locate 查找配置文件，从 cmd/ 下运行时回退到上级目录
func Locate(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		parent := filepath.Join("..", path)
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
	}
	return path
}

// ResolvePaths 将相对路径解析为相对于配置文件所在目录
func (c *Config) ResolvePaths(configPath string) {
	base := filepath.Dir(configPath)
	if !filepath.IsAbs(c.Model.Path) {
		c.Model.Path = filepath.Join(base, c.Model.Path)
	}
	if !filepath.IsAbs(c.Data.Dir) {
		c.Data.Dir = filepath.Join(base, c.Data.Dir)
	}
	if c.Log.File != "" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(base, c.Log.File)
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if _, err := ml.ParseSchema(c.Model.Schema); err != nil {
		return fmt.Errorf("model.schema: %w", err)
	}
	switch c.Model.Type {
	case ml.TypeLogisticRegression, ml.TypeDecisionTree:
	default:
		return fmt.Errorf("model.type %q unsupported", c.Model.Type)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	switch strings.ToLower(c.Data.Encoding) {
	case "", "utf-8", "utf8", "windows-1252", "cp1252", "iso-8859-1", "latin1":
	default:
		return fmt.Errorf("data.encoding %q unsupported", c.Data.Encoding)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unsupported", c.Log.Level)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be positive")
	}
	return nil
}

// DataPath 返回数据集文件的完整路径
func (c *Config) DataPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}
