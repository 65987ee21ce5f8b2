package app

import (
	"github.com/specialistvlad/modkernel/internal/registry"
	"github.com/specialistvlad/modkernel/modules/env_vars"
	"github.com/specialistvlad/modkernel/modules/print"
)

// coreModules is the list of handler modules compiled into the binary.
var coreModules = []registry.Module{
	&env_vars.Module{},
	&print.Module{},
}
