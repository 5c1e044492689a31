package log

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mwantia/fabric/pkg/container"
)

const loggerTag = "logger"

var loggerServiceType = reflect.TypeOf((*LoggerService)(nil)).Elem()

// LoggerTagProcessor injects component loggers into fields tagged with
// `fabric:"logger"` or `fabric:"logger:<component>"`. The second form
// derives a child of the registered LoggerService via Named.
type LoggerTagProcessor struct{}

func NewLoggerTagProcessor() *LoggerTagProcessor {
	return &LoggerTagProcessor{}
}

// GetPriority ranks above the container's default inject processor.
func (ltp *LoggerTagProcessor) GetPriority() int {
	return 50
}

func (ltp *LoggerTagProcessor) CanProcess(value string) bool {
	_, ok := componentName(value)
	return ok
}

func (ltp *LoggerTagProcessor) Process(ctx context.Context, sc *container.ServiceContainer, field reflect.StructField, value string) (any, error) {
	if !loggerServiceType.AssignableTo(field.Type) {
		return nil, fmt.Errorf("field '%s' of type '%s' cannot hold a LoggerService", field.Name, field.Type)
	}

	ok, resolved := sc.ResolveByType(ctx, loggerServiceType)
	if !ok {
		return nil, fmt.Errorf("failed to resolve LoggerService for field '%s': no logger registered", field.Name)
	}

	base, ok := resolved.(LoggerService)
	if !ok {
		return nil, fmt.Errorf("resolved '%T' for field '%s' is not a LoggerService", resolved, field.Name)
	}

	if name, _ := componentName(value); name != "" {
		return base.Named(name), nil
	}
	return base, nil
}

// componentName splits "logger:<name>" and reports whether value is a logger tag at all.
func componentName(value string) (string, bool) {
	prefix, name, found := strings.Cut(value, ":")
	if !strings.EqualFold(strings.TrimSpace(prefix), loggerTag) {
		return "", false
	}
	if !found {
		return "", true
	}
	return strings.TrimSpace(name), true
}
