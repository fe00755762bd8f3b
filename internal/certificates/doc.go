// Package certificates produces the completion artifact for cleared
// applications. Rendering sits behind the Renderer interface so the PDF
// engine stays outside the core; the bundled FileRenderer writes an HTML
// certificate to the configured directory.
//
// Issuance is idempotent per application: the certificates table carries a
// UNIQUE application constraint, so retries and races never produce a second
// certificate row. A render failure never reverts a completed application;
// the worker retries missing certificates out-of-band.
package certificates
