// pkg/deploy/stage.go

package deploy

// Stage names one step of the deployment state machine. Stages run
// strictly in Order with no back-edges; the first failure moves the run
// to the terminal aborted state.
type Stage string

const (
	StageCheckPreconditions Stage = "CHECK_PRECONDITIONS"
	StageBackup             Stage = "BACKUP"
	StageTeardown           Stage = "TEARDOWN"
	StageInstallDeps        Stage = "INSTALL_DEPS"
	StageDeployArtifacts    Stage = "DEPLOY_ARTIFACTS"
	StageConfigureService   Stage = "CONFIGURE_SERVICE"
	StageHardenPermissions  Stage = "HARDEN_PERMISSIONS"
	StageStart              Stage = "START"
	StageVerify             Stage = "VERIFY"
	StageExposeNetwork      Stage = "EXPOSE_NETWORK"
	StageDone               Stage = "DONE"
)

// Order is the canonical stage sequence. EXPOSE_NETWORK runs last so a
// mid-pipeline failure never leaves the firewall freshly enforcing.
var Order = []Stage{
	StageCheckPreconditions,
	StageBackup,
	StageTeardown,
	StageInstallDeps,
	StageDeployArtifacts,
	StageConfigureService,
	StageHardenPermissions,
	StageStart,
	StageVerify,
	StageExposeNetwork,
}
