package guard

import "context"

// CheckRequest is the payload support tooling submits when reconstructing a
// decision for a user report ("why can't X download Y?"). It carries only
// key names and opaque IDs, so the full response is safe to surface.
type CheckRequest struct {
	SubjectID string `json:"subject_id"`
	Role      string `json:"role"`
	Tenant    string `json:"tenant,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`

	Action string `json:"action"`

	ObjectTenant string `json:"object_tenant,omitempty"`
	ObjectOwner  string `json:"object_owner,omitempty"`
	ObjectStatus string `json:"object_status,omitempty"`
}

// ExplainRequest rebuilds the actor and target object from the request and
// returns a traced Decision. Network exposure of this entry point is the
// caller's concern; here it is a plain function call for trusted admin code.
func (e *Engine) ExplainRequest(ctx context.Context, req *CheckRequest) *Decision {
	var actor Actor
	if !req.Anonymous {
		actor = &Principal{
			UserID:        req.SubjectID,
			Role:          req.Role,
			Tenant:        req.Tenant,
			Authenticated: true,
		}
	}
	var res *Resource
	if req.ObjectTenant != "" || req.ObjectOwner != "" || req.ObjectStatus != "" {
		res = &Resource{
			TenantID: req.ObjectTenant,
			OwnerID:  req.ObjectOwner,
			Status:   req.ObjectStatus,
		}
	}
	return e.Explain(ctx, actor, req.Action, res)
}
