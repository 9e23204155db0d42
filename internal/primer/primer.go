package primer

import _ "embed"

//go:embed PRIMER.md
var Primer string
