package workflow

// FailurePatterns is the ordered classification table. Order encodes
// priority: matching walks the list top to bottom and the first entry
// whose MatchText appears in the lowercased failure reason wins, so
// specific tool phrases must stay above the generic catch-all words
// near the bottom.
var FailurePatterns = []FailurePattern{
	{
		Type:         "npm_failure",
		MatchText:    "npm err",
		Description:  "npm failed while resolving or installing packages",
		Severity:     SeverityHigh,
		Category:     CategoryDependency,
		SuggestedFix: "Check the failing package in package.json, regenerate the lockfile and reinstall.",
	},
	{
		Type:         "yarn_install_failure",
		MatchText:    "yarn install",
		Description:  "yarn could not install the dependency tree",
		Severity:     SeverityHigh,
		Category:     CategoryDependency,
		SuggestedFix: "Clear the yarn cache and reinstall with a refreshed lockfile.",
	},
	{
		Type:         "dependency_resolution_failure",
		MatchText:    "could not resolve dependencies",
		Description:  "the package manager could not resolve a consistent dependency set",
		Severity:     SeverityHigh,
		Category:     CategoryDependency,
		SuggestedFix: "Loosen conflicting version constraints or pin the transitive dependency causing the conflict.",
	},
	{
		Type:         "missing_module",
		MatchText:    "module not found",
		Description:  "a required module is missing from the dependency tree",
		Severity:     SeverityHigh,
		Category:     CategoryDependency,
		SuggestedFix: "Add the missing module to the manifest or fix the import path.",
	},
	{
		Type:         "version_mismatch",
		MatchText:    "no matching version",
		Description:  "no published version satisfies the requested constraint",
		Severity:     SeverityMedium,
		Category:     CategoryDependency,
		SuggestedFix: "Relax the version constraint or update to a published release.",
	},
	{
		Type:         "job_timed_out",
		MatchText:    "timed out",
		Description:  "the job or step exceeded its time limit",
		Severity:     SeverityMedium,
		Category:     CategoryTimeout,
		SuggestedFix: "Raise the timeout or split the job into smaller, cacheable stages.",
	},
	{
		Type:         "operation_timeout",
		MatchText:    "timeout",
		Description:  "an operation inside the job hit a timeout",
		Severity:     SeverityMedium,
		Category:     CategoryTimeout,
		SuggestedFix: "Identify the slow operation and add retries or a longer deadline.",
	},
	{
		Type:         "deadline_exceeded",
		MatchText:    "deadline exceeded",
		Description:  "a call gave up after its deadline passed",
		Severity:     SeverityMedium,
		Category:     CategoryTimeout,
		SuggestedFix: "Check the dependency the call targets; extend the deadline only if it is healthy.",
	},
	{
		Type:         "disk_full",
		MatchText:    "no space left",
		Description:  "the runner ran out of disk space",
		Severity:     SeverityCritical,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Prune caches and build artifacts, or move the job to a larger runner.",
	},
	{
		Type:         "out_of_memory",
		MatchText:    "out of memory",
		Description:  "the job exhausted the runner's memory",
		Severity:     SeverityCritical,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Lower build parallelism or move the job to a larger runner.",
	},
	{
		Type:         "connection_refused",
		MatchText:    "connection refused",
		Description:  "a service the job depends on refused the connection",
		Severity:     SeverityHigh,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Verify the dependent service is up and reachable from the runner network.",
	},
	{
		Type:         "network_failure",
		MatchText:    "network error",
		Description:  "the job hit a transient network failure",
		Severity:     SeverityHigh,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Re-run the job; add retry logic if this recurs.",
	},
	{
		Type:         "runner_lost",
		MatchText:    "lost communication",
		Description:  "the runner disconnected mid-job",
		Severity:     SeverityHigh,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Re-run the job and check runner host health if it keeps happening.",
	},
	{
		Type:         "permission_denied",
		MatchText:    "permission denied",
		Description:  "the job lacked permission for a file or API call",
		Severity:     SeverityHigh,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Check token scopes and file modes used by the failing step.",
	},
	{
		Type:         "auth_failure",
		MatchText:    "unauthorized",
		Description:  "a credential used by the job was rejected",
		Severity:     SeverityHigh,
		Category:     CategoryInfrastructure,
		SuggestedFix: "Rotate the expired or revoked credential in the repository secrets.",
	},
	{
		Type:         "registry_push_failure",
		MatchText:    "docker push",
		Description:  "pushing the image to the registry failed",
		Severity:     SeverityHigh,
		Category:     CategoryDeployment,
		SuggestedFix: "Confirm registry credentials and repository write access.",
	},
	{
		Type:         "registry_failure",
		MatchText:    "registry",
		Description:  "a container or package registry operation failed",
		Severity:     SeverityHigh,
		Category:     CategoryDeployment,
		SuggestedFix: "Check registry availability and authentication for the job.",
	},
	{
		Type:         "deployment_failure",
		MatchText:    "deploy",
		Description:  "the deployment step failed",
		Severity:     SeverityCritical,
		Category:     CategoryDeployment,
		SuggestedFix: "Inspect the deployment target's logs and roll back if the environment is degraded.",
	},
	{
		Type:         "helm_failure",
		MatchText:    "helm",
		Description:  "a helm release operation failed",
		Severity:     SeverityHigh,
		Category:     CategoryDeployment,
		SuggestedFix: "Run helm diff against the cluster and fix the chart values that drifted.",
	},
	{
		Type:         "terraform_failure",
		MatchText:    "terraform",
		Description:  "a terraform plan or apply failed",
		Severity:     SeverityHigh,
		Category:     CategoryDeployment,
		SuggestedFix: "Review the plan output and reconcile state drift before re-applying.",
	},
	{
		Type:         "assertion_failure",
		MatchText:    "assertion",
		Description:  "a test assertion failed",
		Severity:     SeverityMedium,
		Category:     CategoryTest,
		SuggestedFix: "Read the failing assertion and decide whether the code or the expectation is wrong.",
	},
	{
		Type:         "snapshot_mismatch",
		MatchText:    "snapshot",
		Description:  "a snapshot test no longer matches",
		Severity:     SeverityLow,
		Category:     CategoryTest,
		SuggestedFix: "Review the diff; update the snapshot only if the change is intended.",
	},
	{
		Type:         "test_failure",
		MatchText:    "test",
		Description:  "the test suite failed",
		Severity:     SeverityMedium,
		Category:     CategoryTest,
		SuggestedFix: "Run the failing suite locally and bisect the breaking change.",
	},
	{
		Type:         "lint_failure",
		MatchText:    "lint",
		Description:  "static analysis rejected the change",
		Severity:     SeverityLow,
		Category:     CategoryBuild,
		SuggestedFix: "Run the linter locally and apply its fixes before pushing.",
	},
	{
		Type:         "compile_failure",
		MatchText:    "compil",
		Description:  "the code failed to compile",
		Severity:     SeverityHigh,
		Category:     CategoryBuild,
		SuggestedFix: "Reproduce the compiler error locally; it usually points at the exact line.",
	},
	{
		Type:         "syntax_error",
		MatchText:    "syntax error",
		Description:  "a source file has a syntax error",
		Severity:     SeverityHigh,
		Category:     CategoryBuild,
		SuggestedFix: "Fix the reported file and add a pre-commit check to catch it earlier.",
	},
	{
		Type:         "build_failure",
		MatchText:    "build",
		Description:  "the build step failed",
		Severity:     SeverityHigh,
		Category:     CategoryBuild,
		SuggestedFix: "Re-run the build locally with verbose output to find the first real error.",
	},
}

// unknownPattern is the fallback when nothing in the table matches.
var unknownPattern = FailurePattern{
	Type:         "unknown",
	Description:  "the failure did not match any known pattern",
	Severity:     SeverityMedium,
	Category:     CategoryUnknown,
	SuggestedFix: "Open the run logs; unclassified failures usually need a human look.",
}
