// Package classifier maps a fault to a complexity bucket, a category tag and a
// confidence score.
//
// Classification is rule based. The fault kind selects a base score and a
// category; complexity factors found in the code snippet and traceback (async
// code, database access, concurrency, frames from more than one file, ...)
// multiply the score, and the score is bucketed into simple, medium or complex.
// Confidence grows with how much context the fault carries.
//
// The classifier never fails. An unknown fault with no context classifies as
// medium / unknown / 0.5.
package classifier
