package source

// EnergySourceBeforeTau writes into j the energy-momentum density, on the
// tau slice, of every emitter that finished depositing at or before tau:
// strings with tau_stop <= tau and partons with their own proper time
// <= tau. The proper-time kernel is integrated out, so
// ∫ τ dx dy dη J^t equals the energy assigned to those emitters.
// It ignores the current window and scans the full repository.
func (e *Engine) EnergySourceBeforeTau(tau, x, y, etaS float64, u FlowVec, j *EnergyFlowVec) {
	*j = EnergyFlowVec{}
	if !(tau > 0) {
		return
	}
	strs := e.repo.Strings()
	for i := range strs {
		if strs[i].TauStop() <= tau {
			e.addString(j, i, cumulative, tau, x, y, etaS)
		}
	}
	parts := e.repo.Partons()
	for i := range parts {
		if parts[i].Tau <= tau {
			e.addParton(j, i, cumulative, tau, x, y, etaS)
		}
	}
}

// RhobSourceBeforeTau is the net-baryon analogue of EnergySourceBeforeTau.
func (e *Engine) RhobSourceBeforeTau(tau, x, y, etaS float64, u FlowVec) float64 {
	if !(tau > 0) {
		return 0
	}
	var rho float64
	strs := e.repo.Strings()
	for i := range strs {
		if strs[i].CarriesBaryon() && strs[i].TauStop() <= tau {
			rho += e.stringBaryon(i, cumulative, tau, x, y, etaS)
		}
	}
	parts := e.repo.Partons()
	for i := range parts {
		if p := &parts[i]; p.BaryonNumber != 0 && p.Tau <= tau {
			rho += e.partonBaryon(i, cumulative, tau, x, y, etaS)
		}
	}
	return rho
}
