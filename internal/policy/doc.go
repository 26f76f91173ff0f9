// Package policy decides whether an upload is acceptable.
//
// Engine holds five independent validators (Filename, Size, MIME, Quota,
// Association). Each returns nil or a *Violation carrying a stable Code and
// the limits involved. Check runs all of them for pre-flight validation;
// First and Declared stop at the first failure for the commit path. The
// evaluation order is always filename, size, MIME, quota, association.
//
// ShouldReuse is the idempotency rule: a second upload of identical bytes to
// the same message binds to the existing object instead of writing a new one.
package policy
