package vm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/lookatitude/skill-engine/auth"
	"github.com/lookatitude/skill-engine/skill"
)

type instanceCtxKey struct{}

type instanceCtxValue struct {
	instance *skill.ResolvedInstance
	secrets  SecretsProvider
}

func withInstance(ctx context.Context, instance *skill.ResolvedInstance, secrets SecretsProvider) context.Context {
	return context.WithValue(ctx, instanceCtxKey{}, &instanceCtxValue{instance: instance, secrets: secrets})
}

func instanceFromCtx(ctx context.Context) *instanceCtxValue {
	v, _ := ctx.Value(instanceCtxKey{}).(*instanceCtxValue)
	return v
}

// instantiateHostModule exports the "network" and "secrets" buckets as
// guest-callable host functions. "environment" and "filesystem" are
// scoped entirely through WASI (env vars and preopened directories) and
// need no custom ABI.
func instantiateHostModule(ctx context.Context, runtime wazero.Runtime, d *Driver) (api.Module, error) {
	return runtime.NewHostModuleBuilder("skillengine").
		NewFunctionBuilder().
		WithFunc(hostNetworkAllowed).
		Export("network_allowed").
		NewFunctionBuilder().
		WithFunc(d.hostSecretGet).
		Export("secret_get").
		Instantiate(ctx)
}

// hostNetworkAllowed reports (as 1/0) whether the calling instance may
// contact hostPtr/hostLen, per its granted capabilities and the resolved
// allowed_hosts/blocked_hosts lists. Absent CapNetworkAccess, every host
// is denied regardless of the allow/block lists.
func hostNetworkAllowed(ctx context.Context, mod api.Module, hostPtr, hostLen uint32) uint32 {
	iv := instanceFromCtx(ctx)
	if iv == nil || iv.instance == nil {
		return 0
	}
	host, ok := mod.Memory().Read(hostPtr, hostLen)
	if !ok {
		return 0
	}
	if !iv.instance.HasCapability(auth.CapNetworkAccess) {
		return 0
	}
	return boolToU32(hostAllowed(string(host), iv.instance.AllowedHosts, iv.instance.BlockedHosts))
}

func hostAllowed(host string, allowed, blocked []string) bool {
	for _, b := range blocked {
		if b == host {
			return false
		}
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == host {
			return true
		}
	}
	return false
}

// hostSecretGet resolves a secret by name into the guest's memory at
// outPtr, returning the number of bytes written, or 0 if the instance
// lacks CapSecretsAccess, no provider is configured, or the key is
// unknown. It never writes beyond outCap.
func (d *Driver) hostSecretGet(ctx context.Context, mod api.Module, keyPtr, keyLen, outPtr, outCap uint32) uint32 {
	iv := instanceFromCtx(ctx)
	if iv == nil || iv.instance == nil || iv.secrets == nil {
		return 0
	}
	if !iv.instance.HasCapability(auth.CapSecretsAccess) {
		return 0
	}
	keyBytes, ok := mod.Memory().Read(keyPtr, keyLen)
	if !ok {
		return 0
	}
	val, found := iv.secrets.Resolve(ctx, string(keyBytes))
	if !found {
		return 0
	}
	if uint32(len(val)) > outCap {
		val = val[:outCap]
	}
	if !mod.Memory().Write(outPtr, []byte(val)) {
		return 0
	}
	return uint32(len(val))
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
