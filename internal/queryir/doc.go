// Package queryir is the statement intermediate representation the model
// layer builds before any SQL text exists.
//
// ARCHITECTURE:
//
//	[request context / model op] → [Query IR] → [querysql] → "%s" SQL + params
//
// Keeping statements as values lets the context builder compose filters
// (tenant scoping, search, primary key lookups) and lets tests assert on
// structure instead of strings.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	case Delete:
//	case Insert:
//	case Update:
//	}
//
// VALUES:
//
// Predicate and assignment values are already in driver representation
// (see dialect.Driver.Bind). A nil Equals value means IS NULL.
package queryir
