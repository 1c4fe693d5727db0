package triage

import (
	"testing"

	"guardianpaws/testutil"
)

func TestTriageIsStandalone(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportForbidden, "triage analyzers must not depend on service packages")
}
