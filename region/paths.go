package region

import (
	"fmt"
	"path/filepath"
)

// LambdaPath returns the on-disk path of a variable's level-0 lambda
// stream within dir.
func LambdaPath(dir, varname string, ts int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.ts%d.lambda", varname, ts))
}

// GammaPath returns the on-disk path of a variable's level-`level`
// gamma stream (level in [1,LMax]) within dir.
func GammaPath(dir, varname string, ts, level int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.ts%d.gamma%d", varname, ts, level))
}

// SidecarPath returns the on-disk path of a variable's min/max
// sidecar table within dir.
func SidecarPath(dir, varname string, ts int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.ts%d.minmax", varname, ts))
}
