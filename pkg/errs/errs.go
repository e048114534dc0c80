// Package errs provides the error type used throughout the backend. An error
// carries the operation stack it passed through, a Kind that decides how it is
// presented to the client, and optionally the request parameter it relates to.
//
// Heavily based on the error handling in upspin and diygoapi:
// - https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
// - https://github.com/gilcrest/diygoapi/tree/main/errs
package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Op describes an operation, usually as the package and method,
// such as "coercionService.Coerce".
type Op string

// Parameter is the request parameter or column the error relates to.
type Parameter string

// UserName is the user that triggered the error.
type UserName string

// Kind defines the kind of error this is, mostly for use by the
// transport layer to decide on a status code.
type Kind uint8

const (
	Other           Kind = iota // Unclassified error. This value is not printed in the error message.
	Invalid                     // Invalid operation for this type of item.
	IO                          // External I/O error such as the database being unreachable.
	Exist                       // Item already exists.
	NotExist                    // Item does not exist.
	Private                     // Information withheld.
	Internal                    // Internal error or inconsistency.
	BrokenLink                  // Link target does not exist.
	Database                    // Error from database.
	Validation                  // Input validation error.
	Unanticipated               // Unanticipated error.
	InvalidRequest              // Invalid Request
	Unauthenticated             // Unauthenticated Request
	Unauthorized                // Unauthorized Request
	Conversion                  // A value could not be converted to the requested type.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other_error"
	case Invalid:
		return "invalid_operation"
	case IO:
		return "I/O_error"
	case Exist:
		return "item_already_exists"
	case NotExist:
		return "item_does_not_exist"
	case BrokenLink:
		return "link_target_does_not_exist"
	case Private:
		return "information_withheld"
	case Internal:
		return "internal_error"
	case Database:
		return "database_error"
	case Validation:
		return "input_validation_error"
	case Unanticipated:
		return "unanticipated_error"
	case InvalidRequest:
		return "invalid_request_error"
	case Unauthenticated:
		return "unauthenticated_request"
	case Unauthorized:
		return "unauthorized_request"
	case Conversion:
		return "conversion_error"
	}

	return "unknown_error_kind"
}

// Error is the type that implements the error interface.
type Error struct {
	// Op is the operation being performed.
	Op Op
	// User is the user attempting the operation.
	User UserName
	// Kind is the class of error.
	Kind Kind
	// Param is the parameter or column related to the error.
	Param Parameter
	// Err is the underlying error that triggered this one, if any.
	Err error
}

func (e *Error) isZero() bool {
	return e.Op == "" && e.User == "" && e.Kind == 0 && e.Param == "" && e.Err == nil
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	b := new(strings.Builder)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}

	if e.User != "" {
		pad(b, ", ")
		b.WriteString("user ")
		b.WriteString(string(e.User))
	}

	if e.Param != "" {
		pad(b, ", ")
		b.WriteString("param ")
		b.WriteString(string(e.Param))
	}

	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		// Indent on new line if we are cascading non-empty errors.
		var prevErr *Error
		if errors.As(e.Err, &prevErr) {
			if !prevErr.isZero() {
				pad(b, ":\n\t")
				b.WriteString(e.Err.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}

	if b.Len() == 0 {
		return "no error"
	}

	return b.String()
}

// pad appends str to the buffer if the buffer already has some data.
func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}

	b.WriteString(str)
}

// E builds an error value from its arguments. The type of each argument
// determines its meaning:
//
//	errs.Op          the operation being performed
//	errs.UserName    the user attempting the operation
//	errs.Kind        the class of error
//	errs.Parameter   the parameter or column related to the error
//	error            the underlying error
//	string           treated as an error message
//
// If the underlying error is an *Error and no Kind is given, the Kind is
// copied from it, so the classification survives the trip up the stack.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("call to errs.E with no arguments")
	}

	e := &Error{}

	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			e.Op = arg
		case UserName:
			e.User = arg
		case Kind:
			e.Kind = arg
		case Parameter:
			e.Param = arg
		case string:
			e.Err = Str(arg)
		case *Error:
			errCopy := *arg
			e.Err = &errCopy
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			return fmt.Errorf("errs.E: bad call from %s:%d: %v, unknown type %T, value %v in error call", file, line, args, arg, arg)
		}
	}

	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	// If this error has Kind, Param or User unset, pull up the inner one.
	if e.Kind == Other {
		e.Kind = prev.Kind
		prev.Kind = Other
	}

	if e.Param == "" {
		e.Param = prev.Param
		prev.Param = ""
	}

	if e.User == "" {
		e.User = prev.User
		prev.User = ""
	}

	return e
}

// Str returns an error that formats as the given text.
func Str(text string) error {
	return &errorString{text}
}

type errorString struct {
	s string
}

func (e *errorString) Error() string {
	return e.s
}

// KindIs reports whether err is an *Error of the given Kind.
// If err is nil then KindIs returns false.
func KindIs(kind Kind, err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	if e.Kind != Other {
		return e.Kind == kind
	}

	if e.Err != nil {
		return KindIs(kind, e.Err)
	}

	return false
}

// OpStack returns the operations an error passed through, outermost first.
func OpStack(err error) []string {
	var ops []string

	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}

		if e.Op != "" {
			ops = append(ops, string(e.Op))
		}

		err = e.Err
	}

	return ops
}

// Match compares its two error arguments. It can be used to check for
// expected errors in tests. Both arguments must have underlying type *Error
// or Match will return false. Otherwise it returns true if every non-zero
// element of the first error is equal to the corresponding element of the
// second. If the Err field is a *Error, Match recurs on that field;
// otherwise it compares the strings returned by the Error methods.
func Match(err1, err2 error) bool {
	e1, ok := err1.(*Error)
	if !ok {
		return false
	}

	e2, ok := err2.(*Error)
	if !ok {
		return false
	}

	if e1.Op != "" && e2.Op != e1.Op {
		return false
	}

	if e1.User != "" && e2.User != e1.User {
		return false
	}

	if e1.Kind != Other && e2.Kind != e1.Kind {
		return false
	}

	if e1.Param != "" && e2.Param != e1.Param {
		return false
	}

	if e1.Err != nil {
		if _, ok := e1.Err.(*Error); ok {
			return Match(e1.Err, e2.Err)
		}

		if e2.Err == nil || e2.Err.Error() != e1.Err.Error() {
			return false
		}
	}

	return true
}
