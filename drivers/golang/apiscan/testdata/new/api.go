package testmod

import "context"

// DoWork gained a required argument.
func DoWork(ctx context.Context, name string, opts map[string]string) (string, error) {
	return "", nil
}

func SimpleFunc() {}

// HelperFunc lost its second argument.
func HelperFunc(a int) int {
	return a
}

func Variadic(args ...string) int {
	return len(args)
}

// Config lost Port and gained Timeout.
type Config struct {
	Host    string
	Timeout int
	secret  string
}

// Handler.Handle gained optional trailing arguments.
type Handler interface {
	Handle(ctx context.Context, req string, opts ...string) (string, error)
	Close() error
}

type Token int

type Settings = Config

func (c *Config) Validate() error {
	return nil
}

func (c *Config) Apply(target string, force bool) (bool, error) {
	return false, nil
}

const MaxRetries int = 5

const Mode = "fast"

func ComputeHash(data string) string {
	return ""
}

func NewFeature() {}
