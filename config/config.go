package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	EnvFile         = ".env"
	EnvConfigPrefix = "BABYNEST_API"
)

type Config struct {
	Version          kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`
	EnvName          string           `kong:"help='Environment name.',default='dev'"`
	ServiceName      string           `kong:"help='Service name.',default='babynest-api'"`
	HealthFreqSec    int              `kong:"help='Health check frequency in seconds.',default=10"`
	EnablePprof      bool             `kong:"help='Enable pprof endpoints (http://$apiListenAddress/debug).',default=false"`
	APIListenAddress string           `kong:"help='API listen address (serves health, metrics, version).',default=:8080"`
	LogConfig        string           `kong:"help='Logging config to use.',enum='dev,prod',default='dev'"`

	NewRelicAppName    string `kong:"help='New Relic application name.',default='babynest-api (DEV)'"`
	NewRelicLicenseKey string `kong:"help='New Relic license key.'"`

	DBHost     string `kong:"help='Database host.',default=localhost"`
	DBName     string `kong:"help='Database name.',default=babynest"`
	DBUser     string `kong:"help='Database user.',default=babynest"`
	DBPassword string `kong:"help='Database password.',default=babynest"`
	DBPort     int    `kong:"help='Database port.',default=5432"`
	DBSSLMode  string `kong:"help='Database SSL mode.',default=disable"`
	DBMigrate  bool   `kong:"help='Run database migrations on startup.',default=true"`

	RedisURL         string        `kong:"help='Redis URL.',default=localhost:6379"`
	RedisPassword    string        `kong:"help='Redis Password.'"`
	RedisDatabase    int           `kong:"help='Redis database.',default=0"`
	RedisPoolSize    int           `kong:"help='Redis pool size.',default=10"`
	RedisDialTimeout time.Duration `kong:"help='Redis dial timeout.',default=5s"`

	ProcessorRabbitURL             []string `kong:"help='Processor RabbitMQ URL(s).',default='amqp://localhost:5672'"`
	ProcessorRabbitQueueName       string   `kong:"help='Processor RabbitMQ queue name.',default='babynest-api'"`
	ProcessorRabbitExchangeName    string   `kong:"help='Processor RabbitMQ exchange name.',default='events'"`
	ProcessorRabbitExchangeType    string   `kong:"help='Processor RabbitMQ exchange type.',default='topic'"`
	ProcessorRabbitExchangeDeclare bool     `kong:"help='Processor RabbitMQ exchange declare.',default=true"`
	ProcessorRabbitExchangeDurable bool     `kong:"help='Processor RabbitMQ exchange durable.',default=true"`
	ProcessorRabbitBindingKeys     []string `kong:"help='Processor RabbitMQ binding keys.',default='entry.created'"`
	ProcessorRabbitQueueDurable    bool     `kong:"help='Processor RabbitMQ queue durable.',default=true"`
	ProcessorRabbitQueueExclusive  bool     `kong:"help='Processor RabbitMQ queue exclusive.',default=false"`
	ProcessorRabbitQueueAutoDelete bool     `kong:"help='Processor RabbitMQ queue auto delete.',default=false"`
	ProcessorRabbitQueueDeclare    bool     `kong:"help='Processor RabbitMQ queue declare.',default=true"`
	ProcessorRabbitAutoAck         bool     `kong:"help='Processor RabbitMQ auto ack.',default=false"`
	ProcessorRabbitUseTLS          bool     `kong:"help='Processor RabbitMQ use TLS.',default=false"`
	ProcessorRabbitSkipVerifyTLS   bool     `kong:"help='Processor RabbitMQ skip TLS verification.',default=false"`
	ProcessorRabbitNumConsumers    int      `kong:"help='Processor RabbitMQ number of consumers.',default=10"`

	PublisherRabbitURL                []string `kong:"help='Publisher RabbitMQ URL(s).',default='amqp://localhost:5672'"`
	PublisherRabbitExchangeName       string   `kong:"help='Publisher RabbitMQ exchange name.',default='events'"`
	PublisherRabbitExchangeType       string   `kong:"help='Publisher RabbitMQ exchange type.',default='topic'"`
	PublisherRabbitExchangeDeclare    bool     `kong:"help='Publisher RabbitMQ exchange declare.',default=true"`
	PublisherRabbitExchangeDurable    bool     `kong:"help='Publisher RabbitMQ exchange durable.',default=true"`
	PublisherRabbitExchangeAutoDelete bool     `kong:"help='Publisher RabbitMQ exchange auto delete.',default=false"`
	PublisherRabbitUseTLS             bool     `kong:"help='Publisher RabbitMQ use TLS.',default=false"`
	PublisherRabbitSkipVerifyTLS      bool     `kong:"help='Publisher RabbitMQ skip TLS verification.',default=false"`
	PublisherNumWorkers               int      `kong:"help='Publisher number of workers.',default=10"`

	SchedulerInterval     time.Duration `kong:"help='How often the scheduler scans for due reminders/reports.',default=1m"`
	SchedulerLockTTL      time.Duration `kong:"help='TTL for the scheduler distributed lock.',default=50s"`
	SchedulerReminderLead time.Duration `kong:"help='How far ahead of a trigger a reminder.due event is emitted.',default=0s"`

	KongContext *kong.Context `kong:"-"`
}

func New(version string) *Config {
	if err := godotenv.Load(EnvFile); err != nil {
		zap.L().Warn("unable to load dotenv file",
			zap.String("err", err.Error()))
	}

	cfg := &Config{}
	cfg.KongContext = kong.Parse(
		cfg,
		kong.Name("babynest-api"),
		kong.Description("Baby activity tracking API"),
		kong.DefaultEnvars(EnvConfigPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	return cfg
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("Config cannot be nil")
	}

	if c.SchedulerLockTTL >= c.SchedulerInterval*2 {
		return errors.New("SchedulerLockTTL should be shorter than two scheduler intervals")
	}

	return nil
}

func (c *Config) GetMap() map[string]string {
	fields := make(map[string]string)

	val := reflect.ValueOf(c)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := val.Field(i)
		fields[field.Name] = fmt.Sprintf("%v", value)
	}

	return fields
}
