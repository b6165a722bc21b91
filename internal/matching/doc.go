// Package matching scores incoming records against canonical entities.
//
// Every entity type uses the same weighted-feature Matcher: a fixed list of
// named features whose weights sum to 1.0 and whose scores lie in [0,1]. The
// per-type feature tables live in features.go; weights can be overridden from
// configuration and are validated once when the Registry is built.
//
// Records and entities are compared through Subjects, which carry every
// normalized form the features need so that scoring performs no allocation-heavy
// normalization and no I/O.
package matching
