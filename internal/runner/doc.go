// Package runner executes YAML-defined test scenarios against the target
// service.
//
// A scenario is a named, categorized sequence of HTTP steps. Each step
// describes one request, the expectations on its response and optional
// database assertions run afterwards. Steps may store their parsed
// response body under a variable name; later steps reference stored
// fields with ${name.field} placeholders in paths, query values and
// bodies. Cleanup steps always run, even when a main step failed.
//
// Scenarios run sequentially or through a bounded worker pool, each under
// a fresh LogID so the buffered logs of parallel scenarios stay
// correlated. Results are streamed to a Reporter and aggregated into a
// SuiteResult that can be written out as a JSON report.
//
// Example scenario:
//
//	name: user-create
//	category: api
//	steps:
//	  - id: create
//	    request:
//	      method: POST
//	      path: /api/users
//	      body: {name: Temp User, email: temp.test@example.com}
//	    store: created
//	    expect:
//	      status: 201
//	  - id: fetch
//	    request:
//	      method: GET
//	      path: /api/users/${created.id}
//	    expect:
//	      status: 200
//	      fields: {name: Temp User}
//	cleanup:
//	  - id: remove
//	    request:
//	      method: DELETE
//	      path: /api/users/${created.id}
package runner
