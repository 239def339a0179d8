package gas

import "fmt"

var errCeilingExceeded = fmt.Errorf("gas required exceeds allowance (%d)", FactorySimulationGasCeiling)
