// Package balloting owns the anonymous vote transaction and the result
// aggregation read path.
//
// A voter is claimed with a single conditional write before any ballot
// data exists. The ballot is then stored under a fresh issuance token so vote
// rows never carry voter identity. Candidate vote counts are a recomputable
// cache of the vote rows.
package balloting
