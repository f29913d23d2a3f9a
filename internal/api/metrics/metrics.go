// Package metrics defines and registers the custom Prometheus metrics of the
// employee directory API. HTTP request metrics come from the echoprometheus
// middleware; this package only holds the domain counters.
//
// All metrics register with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "directory"

// EmployeesCreatedTotal counts successfully created employees.
var EmployeesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "employees_created_total",
		Help:      "Total number of employees created.",
	},
)

// ListQueriesTotal counts list requests that reached the resolver.
// Label:
//   - criteria: "none", "byEmailDomain", "byRole" or "byAge"
var ListQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "list_queries_total",
		Help:      "Total number of employee list queries, by criteria.",
	},
	[]string{"criteria"},
)

// ManagerChangesTotal counts manager assignments and removals.
// Labels:
//   - action: "assign" or "remove"
//   - result: "ok", "rejected" or "error"
var ManagerChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "manager_changes_total",
		Help:      "Total number of manager assignment and removal requests, by outcome.",
	},
	[]string{"action", "result"},
)

// DataInconsistenciesTotal counts manager references that point at a
// missing employee.
var DataInconsistenciesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_inconsistencies_total",
		Help:      "Total number of dangling manager references found while serving requests.",
	},
)

// AuthFailuresTotal counts rejected credential checks.
// Label:
//   - reason: "not_found" or "mismatch"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of failed employee credential checks.",
	},
	[]string{"reason"},
)
