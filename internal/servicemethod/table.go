package servicemethod

// Service names as they appear in descriptor commands.
const (
	DefinitionService   = "DefinitionService"
	JobService          = "JobService"
	ProcessAdminService = "ProcessAdminService"
	ProcessService      = "ProcessService"
	QueryService        = "QueryService"
	UserTaskService     = "UserTaskService"
)

func def(name string, positions ...Position) *Method {
	return NewMethod(DefinitionService, name, positions...)
}

func job(name string, positions ...Position) *Method {
	return NewMethod(JobService, name, positions...)
}

func admin(name string, positions ...Position) *Method {
	return NewMethod(ProcessAdminService, name, positions...)
}

func process(name string, positions ...Position) *Method {
	return NewMethod(ProcessService, name, positions...)
}

func query(name string, positions ...Position) *Method {
	return NewMethod(QueryService, name, positions...)
}

func task(name string) *Method {
	return NewMethod(UserTaskService, name, At(ContainerID, 0), At(TaskInstanceID, 1))
}

// DefaultTable lists every KIE service method that carries a routable argument.
// Overloads appear once per signature.
func DefaultTable() []*Method {
	cid := At(ContainerID, 0)
	return []*Method{
		def("getProcessDefinition", cid),
		def("getReusableSubProcesses", cid),
		def("getProcessVariables", cid),
		def("getServiceTasks", cid),
		def("getAssociatedEntities", cid),
		def("getTasksDefinitions", cid),
		def("getTaskInputMappings", cid),
		def("getTaskOutputMappings", cid),

		job("scheduleRequest", cid),
		job("cancelRequest", At(JobID, 0)),
		job("requeueRequest", At(JobID, 0)),
		job("getRequestById", At(JobID, 0)),

		admin("migrateProcessInstance", cid, At(ProcessInstanceID, 1)),
		admin("migrateProcessInstances", cid, At(ProcessInstanceIDs, 1)),

		process("startProcess", cid),
		process("startProcess", cid),
		process("startProcessWithCorrelation", cid, At(CorrelationKey, 2)),
		process("abortProcessInstance", cid, At(ProcessInstanceID, 1)),
		process("abortProcessInstances", cid, At(ProcessInstanceIDs, 1)),
		process("signalProcessInstance", cid, At(ProcessInstanceID, 1)),
		process("signalProcessInstances", cid, At(ProcessInstanceIDs, 1)),
		process("signal", cid),
		process("getProcessInstance", cid, At(ProcessInstanceID, 1)),
		process("setProcessVariable", cid, At(ProcessInstanceID, 1)),
		process("setProcessVariables", cid, At(ProcessInstanceID, 1)),
		process("getProcessInstanceVariable", cid, At(ProcessInstanceID, 1)),
		process("getProcessInstanceVariables", cid, At(ProcessInstanceID, 1)),
		process("getAvailableSignals", cid, At(ProcessInstanceID, 1)),
		process("completeWorkItem", cid, At(ProcessInstanceID, 1), At(WorkItemID, 2)),
		process("abortWorkItem", cid, At(ProcessInstanceID, 1), At(WorkItemID, 2)),
		process("getWorkItem", cid, At(ProcessInstanceID, 1), At(WorkItemID, 2)),
		process("getWorkItemByProcessInstance", cid, At(ProcessInstanceID, 1)),

		query("getProcessInstancesByDeploymentId", cid),
		query("getProcessesByDeploymentId", cid),
		query("getProcessesByDeploymentIdProcessId", cid),
		query("getProcessInstancesByCorrelationKey", At(CorrelationKey, 0)),
		query("getProcessInstanceByCorrelationKey", At(CorrelationKey, 0)),
		query("getProcessInstanceById", At(ProcessInstanceID, 0)),
		query("getProcessInstanceById", At(ProcessInstanceID, 0)),
		query("getProcessInstanceHistory", At(ProcessInstanceID, 0)),
		query("getVariablesCurrentState", At(ProcessInstanceID, 0)),
		query("getVariableHistory", At(ProcessInstanceID, 0)),
		query("getTasksByStatusByProcessInstanceId", At(ProcessInstanceID, 0)),
		query("getNodeInstanceForWorkItem", At(ProcessInstanceID, 0), At(WorkItemID, 1)),
		query("getTaskByWorkItemId", At(WorkItemID, 0)),
		query("getTaskById", At(TaskInstanceID, 0)),
		query("getTaskEvents", At(TaskInstanceID, 0)),

		task("activate"),
		task("claim"),
		task("complete"),
		task("completeAutoProgress"),
		task("delegate"),
		task("exit"),
		task("fail"),
		task("forward"),
		task("release"),
		task("resume"),
		task("skip"),
		task("start"),
		task("stop"),
		task("suspend"),
		task("nominate"),
		task("setPriority"),
		task("setExpirationDate"),
		task("setSkipable"),
		task("setName"),
		task("setDescription"),
		task("saveContent"),
		task("getTaskOutputContentByTaskId"),
		task("getTaskInputContentByTaskId"),
		task("deleteContent"),
		task("addComment"),
		task("deleteComment"),
		task("getCommentsByTaskId"),
		task("getCommentById"),
		task("addAttachment"),
		task("deleteAttachment"),
		task("getAttachmentById"),
		task("getAttachmentContentById"),
		task("getAttachmentsByTaskId"),
		task("getTask"),
	}
}
