package pages

const pageTemplate = `
{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
*{box-sizing:border-box}
body{font-family:Arial,sans-serif;margin:0;background:#f5f5f5;color:#333}
a{color:#fff}
button{padding:8px 15px;border:none;border-radius:4px;cursor:pointer;font-size:14px;background:#007bff;color:#fff}
button:hover{opacity:.8}

/* Header */
.header{background:linear-gradient(135deg,#007bff 0%,#0056b3 100%);color:#fff;padding:12px 20px;display:flex;align-items:center;justify-content:space-between;flex-wrap:wrap;gap:10px}
.header h1{font-size:18px;margin:0}
.nav{font-size:14px}
.wifi-status{display:flex;align-items:center;gap:10px;font-size:12px}
.wifi-bars{display:flex;align-items:flex-end;gap:2px;height:17px}
.wifi-bars .bar{width:4px;background:rgba(255,255,255,.3);border-radius:1px}
.wifi-bars .bar.active{background:var(--bar-color,#00ff00)}

/* Content */
.container{max-width:1100px;margin:0 auto;padding:20px}
.columns{display:flex;gap:20px;flex-wrap:wrap}
.columns>div{flex:1;min-width:320px}
.frame{max-width:100%;border:2px solid #007bff;border-radius:8px}
#log{height:400px;overflow-y:scroll;border:1px solid #ccc;padding:10px;background:#f8f9fa;font-family:monospace;font-size:12px}

/* Settings */
.video-container{text-align:center;margin-bottom:20px}
.mode-controls{text-align:center;margin-bottom:20px}
.settings-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(260px,1fr));gap:16px}
.setting-group{background:#fff;border-radius:8px;padding:16px;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.setting-group h3{margin:0 0 10px;font-size:15px}
.setting-item{display:flex;justify-content:space-between;align-items:center;padding:6px 0}
.setting-controls{display:flex;align-items:center;gap:6px}
.value{font-weight:bold;min-width:44px;text-align:center}
.btn-toggle{background:#6c757d}
.btn-dec,.btn-inc{width:34px;padding:6px 0}
</style>
</head>
<body>
{{template "header" .Header}}
{{if eq .Kind "home"}}{{template "home" .}}{{else if eq .Kind "stream"}}{{template "stream" .}}{{else}}{{template "settings" .}}{{end}}
{{template "script"}}
</body>
</html>
{{end}}

{{define "header"}}<div class="header">
<h1>Sani Flush Cam {{.DeviceID}}{{if .IP}} - {{.IP}}{{end}}</h1>
<div class="nav">{{range $i, $l := .Nav}}{{if $i}} | {{end}}<a href="{{$l.Href}}"{{if $l.NewTab}} target="_blank"{{end}}>{{$l.Label}}</a>{{end}}</div>
<div class="wifi-status">
<div id="{{wifiText}}">WiFi: Loading...</div>
<div class="wifi-bars">{{range bars}}
<div class="bar" id="{{barID .Index}}" style="height:{{.Height}}px"></div>{{end}}
</div>
</div>
</div>
{{end}}

{{define "home"}}<div class="container columns">
<div>
<h2>Camera Preview</h2>
<img id="{{previewID}}" class="frame" src="/capture" alt="Camera preview">
<br><br>
<button onclick="refreshPreview()">Refresh Preview</button>
<h2>Available Endpoints:</h2>
<ul>{{range .Endpoints}}
<li><strong>{{if .Linked}}<a style="color:#007bff" href="{{.Href}}">{{.Label}}</a>{{else}}{{.Label}}{{end}}</strong> - {{.Description}}</li>{{end}}
</ul>
</div>
<div>
<h2>Activity Log (Last 300 entries)</h2>
<div id="{{logID}}"></div>
<br>
<button onclick="refreshLog()">Refresh Log</button>
</div>
</div>
{{end}}

{{define "stream"}}<div class="container" style="text-align:center">
<h2>Live Video Stream</h2>
<img class="frame" style="max-width:90%" src="/stream_raw" alt="Live stream">
</div>
{{end}}

{{define "settings"}}<div class="container">
<div class="video-container">
<img id="{{previewID}}" class="frame" style="width:90%;max-width:640px" src="/capture" alt="Camera preview">
<br><br>
<label><input type="radio" name="refresh" value="manual"{{if not .Preview.Auto}} checked{{end}} onchange="setRefresh(this.value)"> Manual Refresh</label>
<label><input type="radio" name="refresh" value="auto"{{if .Preview.Auto}} checked{{end}} onchange="setRefresh(this.value)"> Auto Refresh (3s)</label>
<label><input type="checkbox" id="useFlash"{{if .Preview.Flash}} checked{{end}} onchange="setFlash(this.checked)"> Use Flash</label>
<button onclick="refreshPreview()">Refresh Now</button>
</div>
<div class="mode-controls">
<label><input type="radio" name="mode" value="color" onchange="setMode(this.value)" checked> Color</label>
<label><input type="radio" name="mode" value="bw" onchange="setMode(this.value)"> Black &amp; White</label>
</div>
<div class="settings-grid">{{range .Groups}}
<div class="setting-group">
<h3>{{.Title}}</h3>{{range .Settings}}
<div class="setting-item">
<span>{{.Label}}</span>
<div class="setting-controls">{{if isBool .}}
<span class="value" id="{{.Name}}">-</span>
<button class="btn-toggle" onclick="toggleSetting({{.Name}})">Toggle</button>{{else}}
<button class="btn-dec" onclick="adjustSetting({{.Name}}, '-')">-</button>
<span class="value" id="{{.Name}}">-</span>
<button class="btn-inc" onclick="adjustSetting({{.Name}}, '+')">+</button>{{end}}
</div>
</div>{{end}}
</div>{{end}}
</div>
</div>
{{end}}

{{define "script"}}<script>
var sock;
function apply(el){
var n=document.getElementById(el.id);
if(!n)return;
if(el.text!==undefined)n.textContent=el.text;
if(el.html!==undefined)n.innerHTML=el.html;
if(el.src!==undefined)n.src=el.src;
if(el.color!==undefined){if(n.classList.contains('bar'))n.style.setProperty('--bar-color',el.color);else n.style.color=el.color}
if(el.active!==undefined)n.classList.toggle('active',el.active);
}
function connect(){
var proto=location.protocol==='https:'?'wss:':'ws:';
sock=new WebSocket(proto+'//'+location.host+'/ws');
sock.onmessage=function(e){
var m=JSON.parse(e.data);
if(m.type==='snapshot'){m.elements.forEach(apply)}else if(m.type==='patch'){apply(m.element)}
};
sock.onclose=function(){setTimeout(connect,2000)};
}
function send(msg){if(sock&&sock.readyState===WebSocket.OPEN)sock.send(JSON.stringify(msg))}
function adjustSetting(setting,direction){send({type:'adjust',setting:setting,direction:direction})}
function toggleSetting(setting){send({type:'toggle',setting:setting})}
function refreshPreview(){send({type:'refresh_preview'})}
function refreshLog(){send({type:'refresh_log'})}
function setRefresh(mode){send({type:'refresh_mode',mode:mode})}
function setFlash(enabled){send({type:'flash',enabled:enabled})}
function setMode(mode){send({type:'color_mode',mode:mode})}
connect();
</script>
{{end}}
`
