// Package ecdhpsi implements two-party private set intersection over
// NIST P-256 using the commutativity of scalar multiplication:
// α·(β·H(x)) == β·(α·H(x)). Neither party's point set leaves its process
// in unmasked form; only doubly-masked points are compared for equality.
package ecdhpsi
