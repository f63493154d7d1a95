// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

func TestContainerParallelism(t *testing.T) {
	t.Setenv(ContainerParallelEnvVar, "5")
	if got := containerParallelism(); got != 5 {
		t.Errorf("containerParallelism() = %d, want 5", got)
	}

	t.Setenv(ContainerParallelEnvVar, "zero")
	if got, want := containerParallelism(), min(runtime.GOMAXPROCS(0), 2); got != want {
		t.Errorf("containerParallelism() = %d, want %d", got, want)
	}
}
