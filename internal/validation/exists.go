// Package validation checks input values against a remote REST resource.
//
// The Exists rule counts the resource rows whose property equals the value
// under validation and fails when there are none:
//
//	posts, _ := resource.New("https://api.example.com/posts")
//	rule := validation.NewExists(posts, "id").WhereNull("deleted_at")
//	if err := rule.Validate(ctx, "post_id", 42); err != nil { ... }
//
// It plugs into go-playground/validator through Register.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/restq/internal/resource"
	"github.com/roach88/restq/internal/transport"
)

// DefaultProperty is the column matched when none is given.
const DefaultProperty = "id"

// ValidationError reports a value with no matching remote row.
type ValidationError struct {
	Attribute string
	Value     any
	Err       error
}

// Error returns "<attribute> attribute value is invalid".
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s attribute value is invalid", e.Attribute)
}

// Unwrap returns the request failure, if the rule was configured to fail on
// one.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Exists passes when at least one remote row has property equal to the
// value. Request failures pass too, unless WithFailureOnError was set.
type Exists struct {
	query        *resource.Query
	property     string
	failsOnError bool
}

// NewExists returns a rule counting rows of q. An empty property means
// DefaultProperty. q is copied, so later changes to it do not leak in.
func NewExists(q *resource.Query, property string) *Exists {
	if property == "" {
		property = DefaultProperty
	}
	return &Exists{query: q.Clone(), property: property}
}

// NewExistsFromURL builds the resource query from rawURL.
func NewExistsFromURL(rawURL, property string, opts ...resource.Option) (*Exists, error) {
	q, err := resource.New(rawURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewExists(q, property), nil
}

// WithFailureOnError makes request failures fail validation.
func (r *Exists) WithFailureOnError() *Exists {
	r.failsOnError = true
	return r
}

// WithAuthorization sets the Authorization header sent with the count
// request. An empty scheme means Bearer.
func (r *Exists) WithAuthorization(token, scheme string) *Exists {
	r.query = r.query.WithAuthorization(token, scheme)
	return r
}

// Where narrows the count to rows where column equals value. A nil value
// matches rows where column is null.
func (r *Exists) Where(column string, value any) *Exists {
	if value == nil {
		return r.WhereNull(column)
	}
	r.query.Eq(column, value)
	return r
}

// WhereNot narrows the count to rows where column differs from value. A nil
// value matches rows where column is not null.
func (r *Exists) WhereNot(column string, value any) *Exists {
	if value == nil {
		return r.WhereNotNull(column)
	}
	r.query.Neq(column, value)
	return r
}

// WhereNull narrows the count to rows where column is null.
func (r *Exists) WhereNull(column string) *Exists {
	r.query.IsNull(column)
	return r
}

// WhereNotNull narrows the count to rows where column is not null.
func (r *Exists) WhereNotNull(column string) *Exists {
	r.query.NotNull(column)
	return r
}

// Validate returns a *ValidationError when no row matches value. The rule
// itself is not modified and can validate any number of values.
func (r *Exists) Validate(ctx context.Context, attribute string, value any) error {
	q := r.query.Clone().Eq(r.property, value)

	n, err := q.Count(ctx, "", "")
	if err != nil {
		if !transport.IsRequestError(err) && !transport.IsDecodeError(err) {
			return err
		}
		if r.failsOnError {
			return &ValidationError{Attribute: attribute, Value: value, Err: err}
		}
		slog.Debug("exists check skipped", "attribute", attribute, "url", q.URL(), "error", err)
		return nil
	}
	if n == 0 {
		return &ValidationError{Attribute: attribute, Value: value}
	}
	return nil
}

// Func adapts the rule to a validator.FuncCtx. The field name is used as
// the attribute. Errors other than a failed check are treated as invalid.
func (r *Exists) Func() validator.FuncCtx {
	return func(ctx context.Context, fl validator.FieldLevel) bool {
		return r.Validate(ctx, fl.FieldName(), fl.Field().Interface()) == nil
	}
}

// Register installs rule on v under tag, so struct fields tagged
// `validate:"<tag>"` are checked remotely with Validate.StructCtx.
func Register(v *validator.Validate, tag string, rule *Exists) error {
	return v.RegisterValidationCtx(tag, rule.Func())
}
