package web

const pageHTML = `{{define "page"}}<!doctype html>
<html>
<head><meta charset="utf-8"><title>Page Viewer</title>
<style>
body { font-family: sans-serif; margin: 10px; }
.controls form { display: inline; }
.view { background: #444; overflow: auto; height: 85vh; text-align: center; }
.error { background: #fdd; border: 1px solid #c33; padding: 6px; margin: 6px 0; }
</style>
</head>
<body>
<div class="controls">
  <form method="post" action="/open"><input name="path" size="40" placeholder="path, URL or s3://bucket/key"><button>Open</button></form>
  <form method="post" action="/prev"><button>&#9664; Previous</button></form>
  <form method="post" action="/next"><button>Next &#9654;</button></form>
  <form method="post" action="/zoom-in"><button>Zoom +</button></form>
  <form method="post" action="/zoom-out"><button>Zoom -</button></form>
  <span id="label">{{.Label}}</span>
</div>
{{with .State.Error}}<div class="error">{{.Message}} <form method="post" action="/dismiss"><button>OK</button></form></div>{{end}}
<div class="view">{{if .Image}}<img src="{{.Image}}" alt="{{.Label}}">{{end}}</div>
<script>
document.addEventListener("keydown", function (e) {
  var keys = {ArrowLeft: "left", ArrowRight: "right", "+": "+", "=": "=", "-": "-"};
  var k = keys[e.key];
  if (!k || e.target.tagName === "INPUT") return;
  var f = document.createElement("form");
  f.method = "post"; f.action = "/key";
  var i = document.createElement("input");
  i.name = "key"; i.value = k; f.appendChild(i);
  document.body.appendChild(f); f.submit();
});
</script>
</body>
</html>{{end}}
{{define "login"}}<!doctype html>
<html><head><meta charset="utf-8"><title>Login</title></head>
<body>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
<form method="post" action="/login">
  <input name="username" placeholder="username">
  <input name="password" type="password" placeholder="password">
  <button>Login</button>
</form>
</body></html>{{end}}`
