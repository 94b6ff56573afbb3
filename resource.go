package godine

import "context"

// Resource pairs a provider's value with the teardown that releases
// it. Factories return a Resource when they need cleanup to run at the
// end of the owning scope's life.
//
// Example:
//
//	reg.Provide("db", func(ctx context.Context, deps godine.Deps) (any, error) {
//	    conn, err := sql.Open("postgres", dsn)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return godine.NewResource(conn, func(ctx context.Context) error {
//	        return conn.Close()
//	    }), nil
//	})
type Resource struct {
	// Value is what consumers receive.
	Value any

	// Teardown releases the value. It may be nil. Teardowns run in
	// strict reverse creation order when the owning scope ends, on a
	// context that survives cancellation of the original call.
	Teardown func(ctx context.Context) error
}

// NewResource pairs a value with its teardown.
func NewResource(value any, teardown func(ctx context.Context) error) Resource {
	return Resource{Value: value, Teardown: teardown}
}

// Disposable is implemented by values that need cleanup. The owning
// scope calls Close in reverse creation order when it ends.
//
// Example:
//
//	type DatabaseConnection struct {
//	    conn *sql.DB
//	}
//
//	func (dc *DatabaseConnection) Close() error {
//	    return dc.conn.Close()
//	}
type Disposable interface {
	Close() error
}

// DisposableWithContext is implemented by values whose cleanup should
// respect context cancellation for graceful shutdown.
//
// Example:
//
//	func (dc *DatabaseConnection) Close(ctx context.Context) error {
//	    done := make(chan error, 1)
//	    go func() {
//	        done <- dc.conn.Close()
//	    }()
//
//	    select {
//	    case err := <-done:
//	        return err
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
type DisposableWithContext interface {
	Close(ctx context.Context) error
}

// splitResource separates a factory result into the cached value and
// its teardown, unwrapping Resource pairs and recognizing disposable
// values.
func splitResource(result any) (any, func(ctx context.Context) error) {
	switch r := result.(type) {
	case Resource:
		return r.Value, r.Teardown
	case *Resource:
		if r == nil {
			return nil, nil
		}
		return r.Value, r.Teardown
	case DisposableWithContext:
		return result, r.Close
	case Disposable:
		return result, func(ctx context.Context) error { return r.Close() }
	default:
		return result, nil
	}
}
