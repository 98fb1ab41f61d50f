package util

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keyurgolani/BabyNest-sub008/clog"
)

// Error is a helper log func that will log an error to NewRelic and to a
// custom logger. All fields can be nil.
//
// Examples:
//
// Error(nil, nil, "foo", nil) -- will return errors.New("foo")
// Error(txn, nil, "foo", nil) -- will notice error on txn
// Error(txn, logger, "foo", errors.New("bar")) -- logs "Foo: bar", notices on txn, returns wrapped err
// Error(nil, nil, "", nil) -- will return nil
func Error(txn *newrelic.Transaction, log clog.ICustomLog, msg string, err error, fields ...zap.Field) error {
	if err == nil && msg == "" {
		// Nothing to do if neither error or msg is present
		return nil
	} else if err != nil && msg != "" {
		// If both err and msg are present, wrap err with msg
		err = errors.Wrap(err, msg)
	} else if err == nil && msg != "" {
		// If only msg is present, use msg for err
		err = errors.New(msg)
	}

	if txn != nil {
		txn.NoticeError(err)
	}

	if log != nil {
		log.Error(CapitalizeFirstChar(err.Error()), fields...)
	}

	return err
}

func CapitalizeFirstChar(s string) string {
	if len(s) == 0 {
		return s
	}

	return strings.ToUpper(string(s[0])) + s[1:]
}

// MethodSetup extracts a NewRelic txn and a logger from a provided context.
// It reduces boilerplate in service methods and ensures every method logs
// with the common fields (cloudEventID, cloudEventType, babyId, ...) that the
// processor attaches to the context.
//
// The NewRelic lib handles calls on nil transactions, so a context without a
// txn is fine.
func MethodSetup(ctx context.Context, fallbackLogger clog.ICustomLog, fields ...zap.Field) (*newrelic.Transaction, clog.ICustomLog) {
	txn := newrelic.FromContext(ctx)

	// If there is no context, we should use the fallback logger
	if ctx == nil {
		if fallbackLogger == nil {
			fmt.Println("WARNING: CTX IS NIL AND NO FALLBACK LOGGER PROVIDED, RETURNING BASIC LOGGER")
			return txn, clog.NewBasic(fields...)
		}

		return txn, fallbackLogger.With(fields...)
	}

	// Context is non-nil, check if it has a logger
	logger, ok := ctx.Value("logger").(clog.ICustomLog)
	if !ok {
		if fallbackLogger != nil {
			logger = fallbackLogger
		} else {
			fmt.Println("WARNING: NO LOGGER FOUND IN CTX AND NO FALLBACK LOGGER PROVIDED")
			logger = clog.NewBasic()
		}
	}

	for _, f := range fields {
		logger = logger.With(f)
	}

	return txn, logger
}
