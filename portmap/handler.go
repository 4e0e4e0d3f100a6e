package portmap

// Handler answers Portmap v2 calls. Per the discovery model this server
// uses, every program the client might ask about (NFS, MOUNT, or one of
// the stub programs unix clients probe speculatively) lives on the same
// TCP port as everything else, so GETPORT never needs a real registry:
// it always hands back that one port.
//
// SET/UNSET are accepted and silently ignored (returning success for SET,
// not-found for UNSET) rather than wired to a registry, since no client
// in this server's supported set registers services dynamically; the
// call still needs an RPC-level reply or the client would hang.
type Handler struct {
	// Port is the single TCP port every program/version is reported on.
	Port uint32
}

// NewHandler returns a Handler that advertises port for every query.
func NewHandler(port uint32) *Handler {
	return &Handler{Port: port}
}

// Null implements PMAPPROC_NULL: a liveness check with no arguments or
// results.
func (h *Handler) Null() error {
	return nil
}

// Set implements PMAPPROC_SET. Always reports success: this server has
// nothing further to register, and failing the call would only make a
// probing client retry.
func (h *Handler) Set(_ Mapping) bool {
	return true
}

// Unset implements PMAPPROC_UNSET. Always reports not-found, since
// nothing is ever actually registered.
func (h *Handler) Unset(_ uint32, _ uint32, _ uint32) bool {
	return false
}

// Getport implements PMAPPROC_GETPORT: regardless of which program,
// version, or protocol the client asks about, the answer is always this
// server's single listening port. A genuine rpcbind would return 0 for
// an unregistered service; this one exists purely to let a single TCP
// listener stand in for NFS, MOUNT, and the stub programs at once.
func (h *Handler) Getport(_ GetportArgs) uint32 {
	return h.Port
}

// Dump implements PMAPPROC_DUMP, listing every program/version this
// server answers to, all bound to the same port.
func (h *Handler) Dump() []Mapping {
	programs := []struct {
		prog uint32
		vers uint32
	}{
		{Program, Version2},
		{100005, 3}, // mount v3
		{100003, 3}, // nfs v3
	}
	out := make([]Mapping, 0, len(programs))
	for _, p := range programs {
		out = append(out, Mapping{Prog: p.prog, Vers: p.vers, Prot: ProtoTCP, Port: h.Port})
	}
	return out
}

// ProbedStubPrograms lists RPC program numbers the dispatcher answers
// with a bare PROG_UNAVAIL rather than routing anywhere, because common
// clients probe them unconditionally (ACL, idmap, a metadata service)
// and treat a prompt refusal as "not supported" rather than a timeout.
var ProbedStubPrograms = map[uint32]bool{
	100227: true, // NFSACL
	100270: true, // ID mapping
	200024: true, // metadata/attribute side-channel some clients probe
}

// IsProbedStub reports whether prog is one of the well-known programs
// clients probe speculatively.
func IsProbedStub(prog uint32) bool {
	return ProbedStubPrograms[prog]
}
